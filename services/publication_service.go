package services

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"publication-system/metrics"
	"publication-system/models"
	"publication-system/repositories"
	"publication-system/storage"
)

const publicationDateLayout = "2006-01-02"

type PublicationService interface {
	Submit(ctx context.Context, actor models.Actor, req models.SubmitPublicationRequest, file io.Reader) (*models.Publication, error)
	Decide(ctx context.Context, actor models.Actor, id uint, status models.PublicationStatus) (*models.Publication, error)
	Delete(ctx context.Context, actor models.Actor, id uint) error
	Get(ctx context.Context, actor models.Actor, id uint) (*models.Publication, error)
	ListMine(ctx context.Context, actor models.Actor) ([]models.Publication, error)
	Library(ctx context.Context, params models.LibraryParams) ([]models.LibraryEntry, error)
	UpdateAccess(ctx context.Context, actor models.Actor, id uint, req models.UpdateAccessRequest) (*models.Publication, error)
	AdminUpdateMeta(ctx context.Context, actor models.Actor, id uint, req models.UpdatePublicationMetaRequest) (*models.Publication, error)
	ListAll(ctx context.Context, actor models.Actor, params models.ListParams) ([]models.Publication, int64, error)
	Canonicalize(ctx context.Context, actor models.Actor, id uint) (storage.Canonicalization, error)
}

type publicationService struct {
	publicationRepo repositories.PublicationRepository
	files           FileStore
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewPublicationService(publicationRepo repositories.PublicationRepository, files FileStore, m *metrics.Metrics, logger *slog.Logger) PublicationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &publicationService{
		publicationRepo: publicationRepo,
		files:           files,
		metrics:         m,
		logger:          logger,
	}
}

func (s *publicationService) Submit(ctx context.Context, actor models.Actor, req models.SubmitPublicationRequest, file io.Reader) (*models.Publication, error) {
	if actor.Role != models.RoleAuthor && actor.Role != models.RoleAdmin {
		return nil, models.ErrorForbidden{Message: "Only authors and admins can submit publications"}
	}
	title := strings.TrimSpace(req.Title)
	abstract := strings.TrimSpace(req.Abstract)
	if title == "" || abstract == "" || strings.TrimSpace(req.PublicationDate) == "" {
		return nil, models.ErrorValidation{Message: "Title, abstract, and publication date are required"}
	}
	date, err := time.Parse(publicationDateLayout, strings.TrimSpace(req.PublicationDate))
	if err != nil {
		return nil, models.ErrorValidation{Message: "Publication date must be formatted as YYYY-MM-DD"}
	}
	if file == nil {
		return nil, models.ErrorValidation{Message: "PDF file is required"}
	}

	name, err := s.files.Store(ctx, file)
	if err != nil {
		return nil, err
	}

	publication := &models.Publication{
		Title:           title,
		Abstract:        abstract,
		PublicationDate: date,
		Status:          models.StatusPending,
		AuthorID:        actor.UserID,
		PDFPath:         &name,
		AccessType:      models.AccessFree,
	}
	if err := s.publicationRepo.Create(ctx, publication); err != nil {
		if delErr := s.files.Delete(ctx, name); delErr != nil {
			s.logger.WarnContext(ctx, "could not remove orphaned upload", "pdf_path", name, "error", delErr)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "publication submitted", "publication_id", publication.ID, "author_id", actor.UserID)
	return publication, nil
}

// Decide applies a moderation decision to a pending publication. On approval
// the file is first moved to its canonical name; failing to do so is logged
// and never blocks the decision. A move whose decision is not recorded is
// reverted.
func (s *publicationService) Decide(ctx context.Context, actor models.Actor, id uint, status models.PublicationStatus) (*models.Publication, error) {
	if !actor.Role.CanModerate() {
		return nil, models.ErrorUnauthorized{Message: "Only admins can moderate publications"}
	}
	if !status.IsDecision() {
		return nil, models.ErrorValidation{Message: "Invalid status. Must be approved or rejected"}
	}

	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Publication not found")
	}
	if publication.Status != models.StatusPending {
		return nil, models.ErrorInvalidStateTransition{Message: "Decision already made and cannot be changed"}
	}

	var moved *storage.Canonicalization
	var newPath *string
	if status == models.StatusApproved {
		moved = s.relocate(ctx, publication)
		if moved != nil {
			newPath = &moved.Path
		}
	}

	ok, err := s.publicationRepo.DecideIfPending(ctx, id, status, newPath)
	if err != nil {
		s.undoRelocation(ctx, publication, moved)
		return nil, err
	}
	if !ok {
		s.undoRelocation(ctx, publication, moved)
		return nil, models.ErrorInvalidStateTransition{Message: "Decision already made and cannot be changed"}
	}

	s.metrics.PublicationDecided(string(status))
	s.logger.InfoContext(ctx, "publication decided",
		"publication_id", id,
		"status", status,
		"decided_by", actor.UserID,
		"role", actor.Role,
	)

	publication.Status = status
	if newPath != nil {
		publication.PDFPath = newPath
	}
	return publication, nil
}

// relocate canonicalizes the publication file and returns the result to
// record, or nil to keep the current path.
func (s *publicationService) relocate(ctx context.Context, publication *models.Publication) *storage.Canonicalization {
	result, err := s.files.Canonicalize(ctx, publication.Title, publication.ID, publication.Path())
	if err != nil {
		s.logger.WarnContext(ctx, "could not canonicalize publication file",
			"publication_id", publication.ID,
			"pdf_path", publication.Path(),
			"error", err,
		)
		return nil
	}
	s.metrics.Canonicalized(string(result.Location))
	if result.Location == storage.LocationMissing {
		return nil
	}
	return &result
}

// undoRelocation puts the file back when the decision that moved it was not
// recorded. If a concurrent approval already recorded the canonical name the
// file stays.
func (s *publicationService) undoRelocation(ctx context.Context, publication *models.Publication, moved *storage.Canonicalization) {
	if moved == nil || moved.Path == publication.Path() {
		return
	}
	if current, err := s.publicationRepo.GetByID(ctx, publication.ID); err == nil && current.Path() == moved.Path {
		return
	}
	if err := s.files.Revert(ctx, *moved, publication.Path()); err != nil {
		s.logger.WarnContext(ctx, "could not revert publication file",
			"publication_id", publication.ID,
			"pdf_path", moved.Path,
			"error", err,
		)
	}
}

func (s *publicationService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Publication not found")
	}
	if publication.AuthorID != actor.UserID && !actor.Role.CanModerate() {
		return models.ErrorForbidden{Message: "You can only delete your own publications"}
	}

	if path := publication.Path(); path != "" {
		if err := s.files.Delete(ctx, path); err != nil {
			s.logger.WarnContext(ctx, "could not delete publication file",
				"publication_id", id,
				"pdf_path", path,
				"error", err,
			)
		}
	}
	if err := s.publicationRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Publication not found")
	}
	s.logger.InfoContext(ctx, "publication deleted", "publication_id", id, "deleted_by", actor.UserID)
	return nil
}

// Get returns an approved publication to anyone, other publications only to
// their author and moderators.
func (s *publicationService) Get(ctx context.Context, actor models.Actor, id uint) (*models.Publication, error) {
	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Publication not found")
	}
	if publication.Status != models.StatusApproved &&
		publication.AuthorID != actor.UserID &&
		!actor.Role.CanModerate() {
		return nil, models.ErrorNotFound{Message: "Publication not found"}
	}
	return publication, nil
}

func (s *publicationService) ListMine(ctx context.Context, actor models.Actor) ([]models.Publication, error) {
	return s.publicationRepo.ListByAuthor(ctx, actor.UserID)
}

// Library lists approved publications followed by PDFs in the uploads root
// that no publication record points at. Raw files carry no metadata, so they
// are dropped whenever a filter they cannot satisfy is set.
func (s *publicationService) Library(ctx context.Context, params models.LibraryParams) ([]models.LibraryEntry, error) {
	publications, err := s.publicationRepo.ListApproved(ctx, params)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LibraryEntry, 0, len(publications))
	for _, p := range publications {
		entry := models.LibraryEntry{
			ID:              strconv.FormatUint(uint64(p.ID), 10),
			Title:           p.Title,
			Abstract:        p.Abstract,
			AccessType:      p.AccessType,
			PublicationDate: p.PublicationDate,
			DOI:             p.DOI,
			Keywords:        p.Keywords,
			PDFPath:         p.Path(),
		}
		if p.Author != nil {
			entry.AuthorName = p.Author.Name
			entry.AuthorEmail = p.Author.Email
		}
		entries = append(entries, entry)
	}

	if params.Author != "" || (params.AccessType != "" && models.AccessType(params.AccessType) != models.AccessFree) {
		return entries, nil
	}

	recorded, err := s.publicationRepo.RecordedPaths(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(recorded))
	for _, p := range recorded {
		known[p] = struct{}{}
	}

	files, err := s.files.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "could not list uploads for library", "error", err)
		return entries, nil
	}
	search := strings.ToLower(strings.TrimSpace(params.Search))
	for _, f := range files {
		if _, ok := known[f.Name]; ok {
			continue
		}
		title := strings.TrimSuffix(strings.TrimSuffix(f.Name, ".pdf"), ".PDF")
		if search != "" && !strings.Contains(strings.ToLower(title), search) {
			continue
		}
		entries = append(entries, models.LibraryEntry{
			ID:              "file-" + f.Name,
			Title:           title,
			AccessType:      models.AccessFree,
			PublicationDate: f.ModTime,
			PDFPath:         f.Name,
		})
	}
	return entries, nil
}

func (s *publicationService) UpdateAccess(ctx context.Context, actor models.Actor, id uint, req models.UpdateAccessRequest) (*models.Publication, error) {
	if !req.AccessType.Valid() {
		return nil, models.ErrorValidation{Message: "Access type must be free, paid or subscription"}
	}
	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Publication not found")
	}
	if publication.AuthorID != actor.UserID && !actor.Role.CanModerate() {
		return nil, models.ErrorForbidden{Message: "Not authorized to update this publication"}
	}

	fields := map[string]any{
		"access_type": req.AccessType,
		"keywords":    strings.TrimSpace(req.Keywords),
		"doi":         strings.TrimSpace(req.DOI),
	}
	if err := s.publicationRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, notFound(err, "Publication not found")
	}
	return s.publicationRepo.GetByID(ctx, id)
}

// AdminUpdateMeta only touches the fields set in req.
func (s *publicationService) AdminUpdateMeta(ctx context.Context, actor models.Actor, id uint, req models.UpdatePublicationMetaRequest) (*models.Publication, error) {
	if !actor.IsSystemAdmin() {
		return nil, models.ErrorUnauthorized{Message: "System admin access required"}
	}
	fields := map[string]any{}
	if req.AccessType != nil {
		if !req.AccessType.Valid() {
			return nil, models.ErrorValidation{Message: "Access type must be free, paid or subscription"}
		}
		fields["access_type"] = *req.AccessType
	}
	if req.Keywords != nil {
		fields["keywords"] = strings.TrimSpace(*req.Keywords)
	}
	if req.DOI != nil {
		fields["doi"] = strings.TrimSpace(*req.DOI)
	}

	if len(fields) > 0 {
		if err := s.publicationRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, notFound(err, "Publication not found")
		}
	}
	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Publication not found")
	}
	return publication, nil
}

func (s *publicationService) ListAll(ctx context.Context, actor models.Actor, params models.ListParams) ([]models.Publication, int64, error) {
	if !actor.IsSystemAdmin() {
		return nil, 0, models.ErrorUnauthorized{Message: "System admin access required"}
	}
	return s.publicationRepo.ListAll(ctx, NormalizePaging(params))
}

// Canonicalize re-runs file relocation for an approved publication. Unlike
// during a decision, a storage failure is reported to the caller.
func (s *publicationService) Canonicalize(ctx context.Context, actor models.Actor, id uint) (storage.Canonicalization, error) {
	if !actor.IsSystemAdmin() {
		return storage.Canonicalization{}, models.ErrorUnauthorized{Message: "System admin access required"}
	}
	publication, err := s.publicationRepo.GetByID(ctx, id)
	if err != nil {
		return storage.Canonicalization{}, notFound(err, "Publication not found")
	}
	if publication.Status != models.StatusApproved {
		return storage.Canonicalization{}, models.ErrorInvalidState{Message: "Only approved publications can be relocated"}
	}

	result, err := s.files.Canonicalize(ctx, publication.Title, publication.ID, publication.Path())
	if err != nil {
		return storage.Canonicalization{}, err
	}
	s.metrics.Canonicalized(string(result.Location))
	if result.Path != publication.Path() {
		if err := s.publicationRepo.UpdatePath(ctx, id, result.Path); err != nil {
			s.undoRelocation(ctx, publication, &result)
			return storage.Canonicalization{}, err
		}
	}
	return result, nil
}

// NormalizePaging clamps page to at least 1 and limit to [1, 100], 20 by
// default.
func NormalizePaging(params models.ListParams) models.ListParams {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	return params
}
