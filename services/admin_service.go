package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"publication-system/models"
	"publication-system/repositories"
	"publication-system/storage"
)

// ResetConfirmation must be echoed back to wipe the database.
const ResetConfirmation = "RESET_ALL_DATA"

type AdminService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uint, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	Statistics(ctx context.Context) (*models.Statistics, error)
	ListUploads(ctx context.Context) ([]storage.File, error)
	DeleteUpload(ctx context.Context, name string) error
	ResetDatabase(ctx context.Context, confirm string) error
}

type adminService struct {
	userRepo        repositories.UserRepository
	publicationRepo repositories.PublicationRepository
	conferenceRepo  repositories.ConferenceRepository
	maintenanceRepo repositories.MaintenanceRepository
	cleaner         *userCleaner
	files           FileStore
	logger          *slog.Logger
	now             func() time.Time
}

// NewAdminService builds the system admin operations. Callers are expected
// to be authorized as system admin by the transport.
func NewAdminService(
	userRepo repositories.UserRepository,
	publicationRepo repositories.PublicationRepository,
	conferenceRepo repositories.ConferenceRepository,
	maintenanceRepo repositories.MaintenanceRepository,
	files FileStore,
	logger *slog.Logger,
) AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &adminService{
		userRepo:        userRepo,
		publicationRepo: publicationRepo,
		conferenceRepo:  conferenceRepo,
		maintenanceRepo: maintenanceRepo,
		cleaner:         &userCleaner{users: userRepo, publications: publicationRepo, files: files, logger: logger},
		files:           files,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *adminService) UpdateUser(ctx context.Context, id uint, req models.UpdateUserRequest) (*models.User, error) {
	if !req.Role.Valid() {
		return nil, models.ErrorValidation{Message: "Role must be author or admin"}
	}
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, models.ErrorValidation{Message: "Name and email are required"}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	if email != user.Email {
		if other, err := s.userRepo.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
			return nil, models.ErrorConflict{Message: "Email is already in use"}
		}
	}

	user.Name = name
	user.Email = email
	user.Role = req.Role
	user.EmailVerified = req.EmailVerified
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id uint) error {
	return s.cleaner.remove(ctx, id)
}

func (s *adminService) Statistics(ctx context.Context) (*models.Statistics, error) {
	users, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	publications, err := s.publicationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	conferences, err := s.conferenceRepo.CountByType(ctx, s.now())
	if err != nil {
		return nil, err
	}

	return &models.Statistics{
		Users:             users,
		Publications:      publications,
		Conferences:       conferences,
		TotalUsers:        sumCounts(users),
		TotalPublications: sumCounts(publications),
		TotalConferences:  sumCounts(conferences),
	}, nil
}

func (s *adminService) ListUploads(ctx context.Context) ([]storage.File, error) {
	return s.files.List(ctx)
}

func (s *adminService) DeleteUpload(ctx context.Context, name string) error {
	if err := s.files.Remove(ctx, name); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "upload deleted", "file", name)
	return nil
}

// ResetDatabase deletes every row, then every uploaded file.
func (s *adminService) ResetDatabase(ctx context.Context, confirm string) error {
	if confirm != ResetConfirmation {
		return models.ErrorValidation{Message: "Confirmation text must be " + ResetConfirmation}
	}
	if err := s.maintenanceRepo.ResetAll(ctx); err != nil {
		return err
	}
	if err := s.files.Purge(ctx); err != nil {
		return err
	}
	s.logger.WarnContext(ctx, "database reset")
	return nil
}

func sumCounts(counts []models.CountByKey) int64 {
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return total
}
