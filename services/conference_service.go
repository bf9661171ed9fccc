package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"publication-system/metrics"
	"publication-system/models"
	"publication-system/repositories"

	"gorm.io/gorm"
)

const conferenceDateLayout = "2006-01-02"

type ConferenceService interface {
	Create(ctx context.Context, actor models.Actor, req models.ConferenceRequest) (*models.Conference, error)
	List(ctx context.Context, kind string) ([]models.Conference, error)
	Get(ctx context.Context, id uint) (*models.Conference, error)
	Update(ctx context.Context, actor models.Actor, id uint, req models.ConferenceRequest) (*models.Conference, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
	Submit(ctx context.Context, actor models.Actor, paperID, conferenceID uint) (*models.ConferenceSubmission, error)
	Decide(ctx context.Context, actor models.Actor, conferenceID, submissionID uint, status models.PublicationStatus) (*models.ConferenceSubmission, error)
	AssignChair(ctx context.Context, actor models.Actor, conferenceID, userID uint) error
	ListChairs(ctx context.Context, conferenceID uint) ([]models.ConferenceChair, error)
	ListSubmissions(ctx context.Context, actor models.Actor, conferenceID uint) ([]models.ConferenceSubmission, error)
	ListMySubmissions(ctx context.Context, actor models.Actor) ([]models.ConferenceSubmission, error)
}

type conferenceService struct {
	conferenceRepo  repositories.ConferenceRepository
	chairRepo       repositories.ChairRepository
	submissionRepo  repositories.SubmissionRepository
	publicationRepo repositories.PublicationRepository
	userRepo        repositories.UserRepository
	metrics         *metrics.Metrics
	logger          *slog.Logger
	now             func() time.Time
}

func NewConferenceService(
	conferenceRepo repositories.ConferenceRepository,
	chairRepo repositories.ChairRepository,
	submissionRepo repositories.SubmissionRepository,
	publicationRepo repositories.PublicationRepository,
	userRepo repositories.UserRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) ConferenceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &conferenceService{
		conferenceRepo:  conferenceRepo,
		chairRepo:       chairRepo,
		submissionRepo:  submissionRepo,
		publicationRepo: publicationRepo,
		userRepo:        userRepo,
		metrics:         m,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *conferenceService) Create(ctx context.Context, actor models.Actor, req models.ConferenceRequest) (*models.Conference, error) {
	if !actor.Role.CanModerate() {
		return nil, models.ErrorForbidden{Message: "Only admins can create conferences"}
	}
	conference := &models.Conference{CreatedBy: actor.UserID}
	if err := applyConferenceRequest(conference, req); err != nil {
		return nil, err
	}
	if err := s.conferenceRepo.Create(ctx, conference); err != nil {
		return nil, err
	}
	conference.Classify(s.now())
	s.logger.InfoContext(ctx, "conference created", "conference_id", conference.ID, "created_by", actor.UserID)
	return conference, nil
}

// List accepts "upcoming", "past" or "" for all conferences.
func (s *conferenceService) List(ctx context.Context, kind string) ([]models.Conference, error) {
	filter := models.ConferenceType(strings.ToLower(strings.TrimSpace(kind)))
	switch filter {
	case "", models.ConferenceUpcoming, models.ConferencePast:
	default:
		return nil, models.ErrorValidation{Message: "type must be upcoming or past"}
	}
	return s.conferenceRepo.List(ctx, filter, s.now())
}

func (s *conferenceService) Get(ctx context.Context, id uint) (*models.Conference, error) {
	conference, err := s.conferenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Conference not found")
	}
	conference.Classify(s.now())
	return conference, nil
}

func (s *conferenceService) Update(ctx context.Context, actor models.Actor, id uint, req models.ConferenceRequest) (*models.Conference, error) {
	if !actor.IsSystemAdmin() {
		return nil, models.ErrorUnauthorized{Message: "System admin access required"}
	}
	conference, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyConferenceRequest(conference, req); err != nil {
		return nil, err
	}
	if err := s.conferenceRepo.Update(ctx, conference); err != nil {
		return nil, err
	}
	conference.Classify(s.now())
	return conference, nil
}

func (s *conferenceService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if !actor.IsSystemAdmin() {
		return models.ErrorUnauthorized{Message: "System admin access required"}
	}
	if err := s.conferenceRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Conference not found")
	}
	s.logger.InfoContext(ctx, "conference deleted", "conference_id", id)
	return nil
}

// Submit registers an approved paper of the caller with a conference. The
// checks run in a fixed order: paper ownership and approval, conference
// existence, then duplicates.
func (s *conferenceService) Submit(ctx context.Context, actor models.Actor, paperID, conferenceID uint) (*models.ConferenceSubmission, error) {
	if actor.Role != models.RoleAuthor {
		return nil, models.ErrorForbidden{Message: "Only authors can submit papers"}
	}

	paper, err := s.publicationRepo.GetByID(ctx, paperID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil || paper.AuthorID != actor.UserID || paper.Status != models.StatusApproved {
		return nil, models.ErrorForbidden{Message: "Only your approved papers can be submitted"}
	}

	if _, err := s.Get(ctx, conferenceID); err != nil {
		return nil, err
	}

	exists, err := s.submissionRepo.Exists(ctx, conferenceID, paperID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrorConflict{Message: "Already submitted to this conference"}
	}

	submission := &models.ConferenceSubmission{
		ConferenceID: conferenceID,
		PaperID:      paperID,
		AuthorID:     actor.UserID,
		Status:       models.StatusPending,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrorConflict{Message: "Already submitted to this conference"}
		}
		return nil, err
	}

	s.metrics.ConferenceSubmitted()
	s.logger.InfoContext(ctx, "paper submitted to conference",
		"submission_id", submission.ID,
		"conference_id", conferenceID,
		"paper_id", paperID,
	)
	return submission, nil
}

// Decide is terminal: only a pending submission can be approved or rejected.
func (s *conferenceService) Decide(ctx context.Context, actor models.Actor, conferenceID, submissionID uint, status models.PublicationStatus) (*models.ConferenceSubmission, error) {
	if !status.IsDecision() {
		return nil, models.ErrorValidation{Message: "Invalid status"}
	}
	if err := s.requireChair(ctx, actor, conferenceID, "Only chairs can approve/reject submissions"); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, notFound(err, "Submission not found")
	}
	if submission.ConferenceID != conferenceID {
		return nil, models.ErrorNotFound{Message: "Submission not found"}
	}
	if submission.Status != models.StatusPending {
		return nil, models.ErrorInvalidStateTransition{Message: "Submission has already been decided"}
	}

	ok, err := s.submissionRepo.UpdateStatusIfPending(ctx, submissionID, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrorInvalidStateTransition{Message: "Submission has already been decided"}
	}

	s.metrics.SubmissionDecided(string(status))
	s.logger.InfoContext(ctx, "conference submission decided",
		"submission_id", submissionID,
		"conference_id", conferenceID,
		"status", status,
		"decided_by", actor.UserID,
	)
	submission.Status = status
	return submission, nil
}

// AssignChair lets the system admin seat any user, and an admin seat
// themselves on an upcoming conference. Repeated assignments are no-ops.
func (s *conferenceService) AssignChair(ctx context.Context, actor models.Actor, conferenceID, userID uint) error {
	switch actor.Role {
	case models.RoleSystemAdmin:
		if _, err := s.Get(ctx, conferenceID); err != nil {
			return err
		}
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return notFound(err, "User not found")
		}
	case models.RoleAdmin:
		if userID != actor.UserID {
			return models.ErrorForbidden{Message: "Admins can only assign themselves as chair"}
		}
		conference, err := s.Get(ctx, conferenceID)
		if err != nil {
			return err
		}
		if !conference.IsUpcoming(s.now()) {
			return models.ErrorInvalidState{Message: "Only upcoming conferences can have chairs assigned"}
		}
	default:
		return models.ErrorUnauthorized{Message: "Only admin can become chair"}
	}

	if err := s.chairRepo.Assign(ctx, conferenceID, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "chair assigned", "conference_id", conferenceID, "user_id", userID, "assigned_by", actor.UserID)
	return nil
}

func (s *conferenceService) ListChairs(ctx context.Context, conferenceID uint) ([]models.ConferenceChair, error) {
	if _, err := s.Get(ctx, conferenceID); err != nil {
		return nil, err
	}
	return s.chairRepo.ListByConference(ctx, conferenceID)
}

func (s *conferenceService) ListSubmissions(ctx context.Context, actor models.Actor, conferenceID uint) ([]models.ConferenceSubmission, error) {
	if err := s.requireChair(ctx, actor, conferenceID, "Only chairs can view submissions"); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, conferenceID); err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByConference(ctx, conferenceID)
}

func (s *conferenceService) ListMySubmissions(ctx context.Context, actor models.Actor) ([]models.ConferenceSubmission, error) {
	return s.submissionRepo.ListByAuthor(ctx, actor.UserID)
}

func (s *conferenceService) requireChair(ctx context.Context, actor models.Actor, conferenceID uint, message string) error {
	if actor.IsSystemAdmin() {
		return nil
	}
	if actor.UserID == 0 {
		return models.ErrorUnauthorized{Message: "Unauthorized"}
	}
	isChair, err := s.chairRepo.IsChair(ctx, conferenceID, actor.UserID)
	if err != nil {
		return err
	}
	if !isChair {
		return models.ErrorUnauthorized{Message: message}
	}
	return nil
}

func applyConferenceRequest(conference *models.Conference, req models.ConferenceRequest) error {
	name := strings.TrimSpace(req.Name)
	location := strings.TrimSpace(req.Location)
	if name == "" || location == "" || strings.TrimSpace(req.Date) == "" {
		return models.ErrorValidation{Message: "Name, date, and location are required"}
	}
	date, err := time.Parse(conferenceDateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return models.ErrorValidation{Message: "Date must be formatted as YYYY-MM-DD"}
	}

	conference.Name = name
	conference.Location = location
	conference.Date = models.StartOfDay(date)
	conference.Description = strings.TrimSpace(req.Description)
	conference.WebsiteURL = strings.TrimSpace(req.WebsiteURL)
	conference.RegistrationFee = strings.TrimSpace(req.RegistrationFee)
	return nil
}
