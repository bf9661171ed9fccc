package services_test

import (
	"os"
	"path/filepath"
	"time"

	"publication-system/models"
	"publication-system/services"
)

func (s *ServiceTestSuite) TestStatistics() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	s.approvedPaper(author, "One")
	s.submitPaper(author, "Two")
	s.createConference("Soon", time.Now().AddDate(0, 1, 0))
	s.createConference("Gone", time.Now().AddDate(0, -1, 0))

	stats, err := s.admin.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalUsers)
	s.Equal(int64(2), stats.TotalPublications)
	s.Equal(int64(2), stats.TotalConferences)
	s.ElementsMatch([]models.CountByKey{{Key: "approved", Count: 1}, {Key: "pending", Count: 1}}, stats.Publications)
	s.ElementsMatch([]models.CountByKey{{Key: "past", Count: 1}, {Key: "upcoming", Count: 1}}, stats.Conferences)
}

func (s *ServiceTestSuite) TestUpdateUser() {
	ada := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	s.createUser("Grace", "grace@example.com", models.RoleAdmin)

	_, err := s.admin.UpdateUser(s.ctx, ada.UserID, models.UpdateUserRequest{Name: "Ada", Email: "GRACE@example.com", Role: models.RoleAuthor})
	assertErrorType[models.ErrorConflict](s, err)

	_, err = s.admin.UpdateUser(s.ctx, ada.UserID, models.UpdateUserRequest{Name: "Ada", Email: "ada@example.com", Role: models.RoleSystemAdmin})
	assertErrorType[models.ErrorValidation](s, err)

	_, err = s.admin.UpdateUser(s.ctx, 9999, models.UpdateUserRequest{Name: "X", Email: "x@example.com", Role: models.RoleAuthor})
	assertErrorType[models.ErrorNotFound](s, err)

	user, err := s.admin.UpdateUser(s.ctx, ada.UserID, models.UpdateUserRequest{
		Name: "Ada Lovelace", Email: "ada@example.com", Role: models.RoleAdmin, EmailVerified: true,
	})
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, user.Role)

	users, err := s.admin.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *ServiceTestSuite) TestDeleteUserRemovesFiles() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.approvedPaper(author, "Gone Soon")
	s.True(s.uploadExists(pub.Path()))

	s.Require().NoError(s.admin.DeleteUser(s.ctx, author.UserID))
	s.False(s.uploadExists(pub.Path()))

	err := s.admin.DeleteUser(s.ctx, author.UserID)
	assertErrorType[models.ErrorNotFound](s, err)
}

func (s *ServiceTestSuite) TestUploads() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.files.Root(), "stray.pdf"), []byte("%PDF"), 0o644))

	files, err := s.admin.ListUploads(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(files, 1)
	s.Equal("stray.pdf", files[0].Name)

	s.Require().NoError(s.admin.DeleteUpload(s.ctx, "stray.pdf"))
	err = s.admin.DeleteUpload(s.ctx, "stray.pdf")
	assertErrorType[models.ErrorNotFound](s, err)
}

func (s *ServiceTestSuite) TestResetDatabase() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	s.approvedPaper(author, "Paper")
	s.createConference("Conf", time.Now().AddDate(0, 1, 0))

	err := s.admin.ResetDatabase(s.ctx, "yes")
	assertErrorType[models.ErrorValidation](s, err)

	s.Require().NoError(s.admin.ResetDatabase(s.ctx, services.ResetConfirmation))

	stats, err := s.admin.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Zero(stats.TotalUsers)
	s.Zero(stats.TotalPublications)
	s.Zero(stats.TotalConferences)

	files, err := s.admin.ListUploads(s.ctx)
	s.Require().NoError(err)
	s.Empty(files)
}
