package services_test

import (
	"time"

	"publication-system/models"
)

func (s *ServiceTestSuite) TestConferenceCRUD() {
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)

	_, err := s.conference.Create(s.ctx, author, models.ConferenceRequest{Name: "X", Date: "2030-01-01", Location: "Paris"})
	assertErrorType[models.ErrorForbidden](s, err)

	_, err = s.conference.Create(s.ctx, admin, models.ConferenceRequest{Name: "X", Date: "tomorrow", Location: "Paris"})
	assertErrorType[models.ErrorValidation](s, err)

	conf, err := s.conference.Create(s.ctx, admin, models.ConferenceRequest{
		Name: " NeurIPS ", Date: time.Now().AddDate(1, 0, 0).Format("2006-01-02"), Location: "Vancouver",
	})
	s.Require().NoError(err)
	s.Equal("NeurIPS", conf.Name)
	s.Equal(admin.UserID, conf.CreatedBy)
	s.Equal(models.ConferenceUpcoming, conf.ConferenceType)

	past := s.createConference("Old Conf", time.Now().AddDate(-1, 0, 0))
	s.Equal(models.ConferencePast, past.ConferenceType)

	upcoming, err := s.conference.List(s.ctx, "upcoming")
	s.Require().NoError(err)
	s.Require().Len(upcoming, 1)
	s.Equal(conf.ID, upcoming[0].ID)

	all, err := s.conference.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = s.conference.List(s.ctx, "someday")
	assertErrorType[models.ErrorValidation](s, err)

	_, err = s.conference.Update(s.ctx, admin, conf.ID, models.ConferenceRequest{Name: "Y", Date: "2030-01-01", Location: "Rome"})
	assertErrorType[models.ErrorUnauthorized](s, err)

	updated, err := s.conference.Update(s.ctx, s.sysadmin, conf.ID, models.ConferenceRequest{Name: "Y", Date: "2030-01-01", Location: "Rome"})
	s.Require().NoError(err)
	s.Equal("Rome", updated.Location)

	err = s.conference.Delete(s.ctx, admin, conf.ID)
	assertErrorType[models.ErrorUnauthorized](s, err)
	s.Require().NoError(s.conference.Delete(s.ctx, s.sysadmin, conf.ID))

	_, err = s.conference.Get(s.ctx, conf.ID)
	assertErrorType[models.ErrorNotFound](s, err)
	err = s.conference.Delete(s.ctx, s.sysadmin, conf.ID)
	assertErrorType[models.ErrorNotFound](s, err)
}

func (s *ServiceTestSuite) TestConferenceSubmitChecks() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	stranger := s.createUser("Eve", "eve@example.com", models.RoleAuthor)
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	conf := s.createConference("ICML", time.Now().AddDate(0, 2, 0))

	pending := s.submitPaper(author, "Unreviewed")
	_, err := s.conference.Submit(s.ctx, author, pending.ID, conf.ID)
	forbidden := assertErrorType[models.ErrorForbidden](s, err)
	s.Equal("Only your approved papers can be submitted", forbidden.Message)

	approved := s.approvedPaper(author, "Reviewed")
	_, err = s.conference.Submit(s.ctx, stranger, approved.ID, conf.ID)
	assertErrorType[models.ErrorForbidden](s, err)

	_, err = s.conference.Submit(s.ctx, author, 9999, conf.ID)
	assertErrorType[models.ErrorForbidden](s, err)

	_, err = s.conference.Submit(s.ctx, author, approved.ID, 9999)
	assertErrorType[models.ErrorNotFound](s, err)

	_, err = s.conference.Submit(s.ctx, admin, approved.ID, conf.ID)
	assertErrorType[models.ErrorForbidden](s, err)

	sub, err := s.conference.Submit(s.ctx, author, approved.ID, conf.ID)
	s.Require().NoError(err)

	mine, err := s.conference.ListMySubmissions(s.ctx, author)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(sub.ID, mine[0].ID)
	s.Equal("Reviewed", mine[0].PaperTitle)
}

func (s *ServiceTestSuite) TestSubmissionDecisionIsTerminal() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	chair := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	first := s.createConference("First", time.Now().AddDate(0, 1, 0))
	second := s.createConference("Second", time.Now().AddDate(0, 1, 0))
	paper := s.approvedPaper(author, "Paper")

	sub, err := s.conference.Submit(s.ctx, author, paper.ID, first.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.conference.AssignChair(s.ctx, chair, first.ID, chair.UserID))
	s.Require().NoError(s.conference.AssignChair(s.ctx, chair, second.ID, chair.UserID))

	_, err = s.conference.ListSubmissions(s.ctx, author, first.ID)
	unauthorized := assertErrorType[models.ErrorUnauthorized](s, err)
	s.Equal("Only chairs can view submissions", unauthorized.Message)

	subs, err := s.conference.ListSubmissions(s.ctx, chair, first.ID)
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal("Ada", subs[0].AuthorName)

	_, err = s.conference.Decide(s.ctx, chair, second.ID, sub.ID, models.StatusApproved)
	assertErrorType[models.ErrorNotFound](s, err)

	_, err = s.conference.Decide(s.ctx, chair, first.ID, sub.ID, models.StatusPending)
	assertErrorType[models.ErrorValidation](s, err)

	decided, err := s.conference.Decide(s.ctx, chair, first.ID, sub.ID, models.StatusRejected)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, decided.Status)

	_, err = s.conference.Decide(s.ctx, s.sysadmin, first.ID, sub.ID, models.StatusApproved)
	assertErrorType[models.ErrorInvalidStateTransition](s, err)
}

func (s *ServiceTestSuite) TestAssignChair() {
	admin := s.createUser("Grace", "grace@example.com", models.RoleAdmin)
	other := s.createUser("Alan", "alan@example.com", models.RoleAdmin)
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	upcoming := s.createConference("Soon", time.Now().AddDate(0, 1, 0))
	past := s.createConference("Gone", time.Now().AddDate(0, -1, 0))

	err := s.conference.AssignChair(s.ctx, author, upcoming.ID, author.UserID)
	s.Equal("Only admin can become chair", assertErrorType[models.ErrorUnauthorized](s, err).Message)

	err = s.conference.AssignChair(s.ctx, admin, upcoming.ID, other.UserID)
	assertErrorType[models.ErrorForbidden](s, err)

	err = s.conference.AssignChair(s.ctx, admin, past.ID, admin.UserID)
	s.Equal("Only upcoming conferences can have chairs assigned", assertErrorType[models.ErrorInvalidState](s, err).Message)

	err = s.conference.AssignChair(s.ctx, admin, 9999, admin.UserID)
	assertErrorType[models.ErrorNotFound](s, err)

	s.Require().NoError(s.conference.AssignChair(s.ctx, admin, upcoming.ID, admin.UserID))
	s.Require().NoError(s.conference.AssignChair(s.ctx, admin, upcoming.ID, admin.UserID))

	// The system admin may seat anyone, on any conference.
	s.Require().NoError(s.conference.AssignChair(s.ctx, s.sysadmin, past.ID, other.UserID))
	err = s.conference.AssignChair(s.ctx, s.sysadmin, past.ID, 9999)
	assertErrorType[models.ErrorNotFound](s, err)

	chairs, err := s.conference.ListChairs(s.ctx, upcoming.ID)
	s.Require().NoError(err)
	s.Require().Len(chairs, 1)
	s.Equal(admin.UserID, chairs[0].UserID)

	_, err = s.conference.ListChairs(s.ctx, 9999)
	assertErrorType[models.ErrorNotFound](s, err)
}
