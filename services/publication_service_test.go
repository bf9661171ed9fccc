package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"publication-system/metrics"
	"publication-system/models"
	"publication-system/repositories"
	"publication-system/services"
	"publication-system/storage"

	"github.com/prometheus/client_golang/prometheus"
)

func (s *ServiceTestSuite) TestApprovalFlowThroughConference() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	other := s.createUser("Alan", "alan@example.com", models.RoleAdmin)

	pub := s.submitPaper(author, "Deep Learning!!")
	s.Equal(models.StatusPending, pub.Status)
	s.Regexp(`^pdf-\d+-[0-9a-f]{12}\.pdf$`, pub.Path())

	approved, err := s.publication.Decide(s.ctx, admin, pub.ID, models.StatusApproved)
	s.Require().NoError(err)
	canonical := fmt.Sprintf("deep-learning-%d.pdf", pub.ID)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(canonical, approved.Path())
	s.True(s.uploadExists(canonical))
	s.False(s.uploadExists(pub.Path()))

	stored, err := s.pubs.GetByID(s.ctx, pub.ID)
	s.Require().NoError(err)
	s.Equal(canonical, stored.Path())

	conf := s.createConference("ICML", time.Now().AddDate(0, 1, 0))
	sub, err := s.conference.Submit(s.ctx, author, pub.ID, conf.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, sub.Status)

	_, err = s.conference.Submit(s.ctx, author, pub.ID, conf.ID)
	assertErrorType[models.ErrorConflict](s, err)

	s.Require().NoError(s.conference.AssignChair(s.ctx, admin, conf.ID, admin.UserID))

	_, err = s.conference.Decide(s.ctx, other, conf.ID, sub.ID, models.StatusApproved)
	unauthorized := assertErrorType[models.ErrorUnauthorized](s, err)
	s.Equal("Only chairs can approve/reject submissions", unauthorized.Message)

	decided, err := s.conference.Decide(s.ctx, admin, conf.ID, sub.ID, models.StatusApproved)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, decided.Status)
}

func (s *ServiceTestSuite) TestDecideIsTerminal() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	pub := s.submitPaper(author, "Graphs")

	_, err := s.publication.Decide(s.ctx, author, pub.ID, models.StatusApproved)
	assertErrorType[models.ErrorUnauthorized](s, err)

	_, err = s.publication.Decide(s.ctx, admin, pub.ID, models.StatusPending)
	assertErrorType[models.ErrorValidation](s, err)

	_, err = s.publication.Decide(s.ctx, admin, 9999, models.StatusApproved)
	assertErrorType[models.ErrorNotFound](s, err)

	rejected, err := s.publication.Decide(s.ctx, admin, pub.ID, models.StatusRejected)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, rejected.Status)
	s.Equal(pub.Path(), rejected.Path())

	_, err = s.publication.Decide(s.ctx, s.sysadmin, pub.ID, models.StatusApproved)
	transition := assertErrorType[models.ErrorInvalidStateTransition](s, err)
	s.Equal("Decision already made and cannot be changed", transition.Message)

	stored, err := s.pubs.GetByID(s.ctx, pub.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, stored.Status)
}

func (s *ServiceTestSuite) TestApproveWithMissingFileKeepsPath() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.submitPaper(author, "Lost Paper")
	s.Require().NoError(os.Remove(filepath.Join(s.files.Root(), pub.Path())))

	approved, err := s.publication.Decide(s.ctx, s.sysadmin, pub.ID, models.StatusApproved)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(pub.Path(), approved.Path())
}

func (s *ServiceTestSuite) TestApproveUntitledSlug() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.approvedPaper(author, "!!!")
	s.Equal(fmt.Sprintf("paper-%d.pdf", pub.ID), pub.Path())
}

func (s *ServiceTestSuite) TestAdminCanonicalize() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)

	pending := s.submitPaper(author, "Pending Work")
	_, err := s.publication.Canonicalize(s.ctx, s.sysadmin, pending.ID)
	assertErrorType[models.ErrorInvalidState](s, err)

	_, err = s.publication.Canonicalize(s.ctx, admin, pending.ID)
	assertErrorType[models.ErrorUnauthorized](s, err)

	// An approved paper recorded with an absolute path outside the root.
	outside := filepath.Join(s.T().TempDir(), "legacy.pdf")
	s.Require().NoError(os.WriteFile(outside, []byte("%PDF-1.4 legacy"), 0o644))
	legacy := s.approvedPaper(author, "Legacy Paper")
	s.Require().NoError(s.pubs.UpdatePath(s.ctx, legacy.ID, outside))
	s.Require().NoError(os.Remove(filepath.Join(s.files.Root(), legacy.Path())))

	result, err := s.publication.Canonicalize(s.ctx, s.sysadmin, legacy.ID)
	s.Require().NoError(err)
	s.Equal(storage.LocationAbsolute, result.Location)
	s.Equal(fmt.Sprintf("legacy-paper-%d.pdf", legacy.ID), result.Path)
	s.True(s.uploadExists(result.Path))

	stored, err := s.pubs.GetByID(s.ctx, legacy.ID)
	s.Require().NoError(err)
	s.Equal(result.Path, stored.Path())

	again, err := s.publication.Canonicalize(s.ctx, s.sysadmin, legacy.ID)
	s.Require().NoError(err)
	s.Equal(storage.LocationCanonical, again.Location)
	s.Equal(result.Path, again.Path)
}

func (s *ServiceTestSuite) TestSubmitValidation() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	file := func() *bytes.Buffer { return bytes.NewBufferString("%PDF-1.4") }

	cases := []models.SubmitPublicationRequest{
		{Title: "", Abstract: "a", PublicationDate: "2024-01-01"},
		{Title: "t", Abstract: " ", PublicationDate: "2024-01-01"},
		{Title: "t", Abstract: "a", PublicationDate: "01/02/2024"},
	}
	for _, req := range cases {
		_, err := s.publication.Submit(s.ctx, author, req, file())
		assertErrorType[models.ErrorValidation](s, err)
	}

	req := models.SubmitPublicationRequest{Title: "t", Abstract: "a", PublicationDate: "2024-01-01"}
	_, err := s.publication.Submit(s.ctx, author, req, nil)
	assertErrorType[models.ErrorValidation](s, err)

	_, err = s.publication.Submit(s.ctx, s.sysadmin, req, file())
	assertErrorType[models.ErrorForbidden](s, err)

	files, err := s.files.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(files)
}

func (s *ServiceTestSuite) TestDeletePublication() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	stranger := s.createUser("Eve", "eve@example.com", models.RoleAuthor)
	pub := s.submitPaper(author, "Mine")

	err := s.publication.Delete(s.ctx, stranger, pub.ID)
	assertErrorType[models.ErrorForbidden](s, err)
	s.True(s.uploadExists(pub.Path()))

	s.Require().NoError(s.publication.Delete(s.ctx, author, pub.ID))
	s.False(s.uploadExists(pub.Path()))

	err = s.publication.Delete(s.ctx, author, pub.ID)
	assertErrorType[models.ErrorNotFound](s, err)
}

func (s *ServiceTestSuite) TestGetPublicationVisibility() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	stranger := s.createUser("Eve", "eve@example.com", models.RoleAuthor)
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	pending := s.submitPaper(author, "Draft")
	approved := s.approvedPaper(author, "Final")

	_, err := s.publication.Get(s.ctx, stranger, pending.ID)
	assertErrorType[models.ErrorNotFound](s, err)
	_, err = s.publication.Get(s.ctx, author, pending.ID)
	s.NoError(err)
	_, err = s.publication.Get(s.ctx, admin, pending.ID)
	s.NoError(err)
	_, err = s.publication.Get(s.ctx, models.Actor{}, approved.ID)
	s.NoError(err)
}

func (s *ServiceTestSuite) TestLibraryMergesUnrecordedFiles() {
	author := s.createUser("Ada Lovelace", "ada@example.com", models.RoleAuthor)
	approved := s.approvedPaper(author, "Deep Learning")
	s.submitPaper(author, "Pending Draft")
	s.Require().NoError(os.WriteFile(filepath.Join(s.files.Root(), "orphan-notes.pdf"), []byte("%PDF"), 0o644))

	entries, err := s.publication.Library(s.ctx, models.LibraryParams{})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(fmt.Sprint(approved.ID), entries[0].ID)
	s.Equal("Ada Lovelace", entries[0].AuthorName)
	s.Equal("file-orphan-notes.pdf", entries[1].ID)
	s.Equal("orphan-notes", entries[1].Title)
	s.Equal(models.AccessFree, entries[1].AccessType)

	entries, err = s.publication.Library(s.ctx, models.LibraryParams{Search: "notes"})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("file-orphan-notes.pdf", entries[0].ID)

	entries, err = s.publication.Library(s.ctx, models.LibraryParams{Author: "lovelace"})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(approved.Title, entries[0].Title)

	entries, err = s.publication.Library(s.ctx, models.LibraryParams{AccessType: "paid"})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ServiceTestSuite) TestUpdateAccessAndMeta() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	stranger := s.createUser("Eve", "eve@example.com", models.RoleAuthor)
	pub := s.approvedPaper(author, "Priced")

	_, err := s.publication.UpdateAccess(s.ctx, stranger, pub.ID, models.UpdateAccessRequest{AccessType: models.AccessPaid})
	assertErrorType[models.ErrorForbidden](s, err)

	_, err = s.publication.UpdateAccess(s.ctx, author, pub.ID, models.UpdateAccessRequest{AccessType: "gratis"})
	assertErrorType[models.ErrorValidation](s, err)

	updated, err := s.publication.UpdateAccess(s.ctx, author, pub.ID, models.UpdateAccessRequest{
		AccessType: models.AccessPaid, Keywords: " ml, ai ", DOI: "10.1000/xyz",
	})
	s.Require().NoError(err)
	s.Equal(models.AccessPaid, updated.AccessType)
	s.Equal("ml, ai", updated.Keywords)

	doi := "10.1000/abc"
	meta, err := s.publication.AdminUpdateMeta(s.ctx, s.sysadmin, pub.ID, models.UpdatePublicationMetaRequest{DOI: &doi})
	s.Require().NoError(err)
	s.Equal(doi, meta.DOI)
	s.Equal(models.AccessPaid, meta.AccessType)
	s.Equal("ml, ai", meta.Keywords)

	_, err = s.publication.AdminUpdateMeta(s.ctx, author, pub.ID, models.UpdatePublicationMetaRequest{DOI: &doi})
	assertErrorType[models.ErrorUnauthorized](s, err)

	_, err = s.publication.AdminUpdateMeta(s.ctx, s.sysadmin, 9999, models.UpdatePublicationMetaRequest{DOI: &doi})
	assertErrorType[models.ErrorNotFound](s, err)
}

func (s *ServiceTestSuite) TestListAllPaging() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	for i := 0; i < 3; i++ {
		s.submitPaper(author, fmt.Sprintf("Paper %d", i))
	}

	page, total, err := s.publication.ListAll(s.ctx, s.sysadmin, models.ListParams{Page: 0, Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(page, 2)

	_, _, err = s.publication.ListAll(s.ctx, author, models.ListParams{})
	assertErrorType[models.ErrorUnauthorized](s, err)

	mine, err := s.publication.ListMine(s.ctx, author)
	s.Require().NoError(err)
	s.Len(mine, 3)
}

// contendedRepository lets another decision land between the read and the
// conditional update of Decide.
type contendedRepository struct {
	repositories.PublicationRepository
	winner models.PublicationStatus
	err    error
}

func (r *contendedRepository) DecideIfPending(ctx context.Context, id uint, status models.PublicationStatus, pdfPath *string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	var winnerPath *string
	if r.winner == models.StatusApproved {
		winnerPath = pdfPath
	}
	if _, err := r.PublicationRepository.DecideIfPending(ctx, id, r.winner, winnerPath); err != nil {
		return false, err
	}
	return r.PublicationRepository.DecideIfPending(ctx, id, status, pdfPath)
}

func (s *ServiceTestSuite) contendedService(repo *contendedRepository) services.PublicationService {
	repo.PublicationRepository = s.pubs
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return services.NewPublicationService(repo, s.files, metrics.New(prometheus.NewRegistry()), logger)
}

func (s *ServiceTestSuite) TestApprovalLosingToRejectionRestoresFile() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.submitPaper(author, "Deep Learning!!")
	raw := pub.Path()
	canonical := fmt.Sprintf("deep-learning-%d.pdf", pub.ID)

	svc := s.contendedService(&contendedRepository{winner: models.StatusRejected})
	_, err := svc.Decide(s.ctx, s.sysadmin, pub.ID, models.StatusApproved)
	assertErrorType[models.ErrorInvalidStateTransition](s, err)

	s.False(s.uploadExists(canonical))
	s.True(s.uploadExists(raw))

	stored, err := s.pubs.GetByID(s.ctx, pub.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, stored.Status)
	s.Equal(raw, stored.Path())

	entries, err := s.publication.Library(s.ctx, models.LibraryParams{})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ServiceTestSuite) TestApprovalLosingToApprovalKeepsRecordedFile() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.submitPaper(author, "Twice Approved")
	canonical := fmt.Sprintf("twice-approved-%d.pdf", pub.ID)

	svc := s.contendedService(&contendedRepository{winner: models.StatusApproved})
	_, err := svc.Decide(s.ctx, s.sysadmin, pub.ID, models.StatusApproved)
	assertErrorType[models.ErrorInvalidStateTransition](s, err)

	stored, err := s.pubs.GetByID(s.ctx, pub.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, stored.Status)
	s.Equal(canonical, stored.Path())
	s.True(s.uploadExists(canonical))
}

func (s *ServiceTestSuite) TestApprovalWithFailedUpdateRestoresFile() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.submitPaper(author, "Lost Write")
	raw := pub.Path()

	svc := s.contendedService(&contendedRepository{err: errors.New("connection reset")})
	_, err := svc.Decide(s.ctx, s.sysadmin, pub.ID, models.StatusApproved)
	s.Require().Error(err)

	s.False(s.uploadExists(fmt.Sprintf("lost-write-%d.pdf", pub.ID)))
	s.True(s.uploadExists(raw))

	stored, err := s.pubs.GetByID(s.ctx, pub.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)

	entries, err := s.publication.Library(s.ctx, models.LibraryParams{})
	s.Require().NoError(err)
	s.Empty(entries)
}
