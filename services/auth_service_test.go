package services_test

import (
	"errors"
	"sync"
	"time"

	"publication-system/models"
	"publication-system/services"

	"github.com/golang-jwt/jwt/v4"
)

func (s *ServiceTestSuite) parseToken(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	s.Require().NoError(err)
	return claims
}

func (s *ServiceTestSuite) TestRegisterVerifyAndLogin() {
	res, err := s.auth.Register(s.ctx, models.RegisterRequest{
		Name: "Ada", Email: " Ada@Example.com ", Password: "password123", Role: models.RoleAuthor,
	})
	s.Require().NoError(err)
	s.True(res.RequiresVerification)
	s.Equal("ada@example.com", res.Email)

	login := models.LoginRequest{Email: "ada@example.com", Password: "password123", Role: models.RoleAuthor}
	_, err = s.auth.Login(s.ctx, login)
	assertErrorType[models.ErrorUnauthorized](s, err)

	code := s.mailer.lastCode("ada@example.com", services.OTPVerification)
	s.Require().Len(code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = s.auth.VerifyEmail(s.ctx, models.VerifyEmailRequest{Email: "ada@example.com", OTP: wrong})
	assertErrorType[models.ErrorValidation](s, err)

	s.Require().NoError(s.auth.VerifyEmail(s.ctx, models.VerifyEmailRequest{Email: "ADA@example.com", OTP: code}))

	err = s.auth.VerifyEmail(s.ctx, models.VerifyEmailRequest{Email: "ada@example.com", OTP: code})
	assertErrorType[models.ErrorValidation](s, err)

	auth, err := s.auth.Login(s.ctx, login)
	s.Require().NoError(err)
	s.Equal("Ada", auth.User.Name)
	claims := s.parseToken(auth.Token)
	s.Equal("author", claims["role"])
	s.InDelta(float64(auth.User.ID), claims["user_id"], 0)

	login.Role = models.RoleAdmin
	_, err = s.auth.Login(s.ctx, login)
	forbidden := assertErrorType[models.ErrorForbidden](s, err)
	s.Equal("User is registered as author, not admin", forbidden.Message)

	login.Role = models.RoleAuthor
	login.Password = "wrong-password"
	_, err = s.auth.Login(s.ctx, login)
	assertErrorType[models.ErrorUnauthorized](s, err)
}

func (s *ServiceTestSuite) TestRegisterRejectsInvalidInput() {
	s.createUser("Ada", "ada@example.com", models.RoleAuthor)

	cases := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"short password", models.RegisterRequest{Name: "B", Email: "b@example.com", Password: "short", Role: models.RoleAuthor}},
		{"system admin role", models.RegisterRequest{Name: "B", Email: "b@example.com", Password: "password123", Role: models.RoleSystemAdmin}},
		{"disposable domain", models.RegisterRequest{Name: "B", Email: "b@mailinator.com", Password: "password123", Role: models.RoleAuthor}},
		{"bad format", models.RegisterRequest{Name: "B", Email: "not-an-email", Password: "password123", Role: models.RoleAuthor}},
	}
	for _, tc := range cases {
		_, err := s.auth.Register(s.ctx, tc.req)
		s.Require().Error(err, tc.name)
		assertErrorType[models.ErrorValidation](s, err)
	}

	_, err := s.auth.Register(s.ctx, models.RegisterRequest{
		Name: "Other", Email: "ADA@example.com", Password: "password123", Role: models.RoleAdmin,
	})
	assertErrorType[models.ErrorConflict](s, err)
}

func (s *ServiceTestSuite) TestOTPLockedAfterThreeFailures() {
	s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	s.Require().NoError(s.auth.ForgotPassword(s.ctx, "ada@example.com"))
	code := s.mailer.lastCode("ada@example.com", services.OTPReset)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	req := models.ResetPasswordRequest{Email: "ada@example.com", OTP: wrong, NewPassword: "new-password"}
	for i := 0; i < 3; i++ {
		err := s.auth.ResetPassword(s.ctx, req)
		s.Equal("Invalid OTP", assertErrorType[models.ErrorValidation](s, err).Message)
	}

	req.OTP = code
	err := s.auth.ResetPassword(s.ctx, req)
	s.Equal("Too many failed attempts", assertErrorType[models.ErrorValidation](s, err).Message)

	// The locked code stays locked until it expires or is reissued.
	err = s.auth.ResetPassword(s.ctx, req)
	s.Equal("Too many failed attempts", assertErrorType[models.ErrorValidation](s, err).Message)

	s.Require().NoError(s.auth.ForgotPassword(s.ctx, "ada@example.com"))
	req.OTP = s.mailer.lastCode("ada@example.com", services.OTPReset)
	s.Require().NoError(s.auth.ResetPassword(s.ctx, req))
}

func (s *ServiceTestSuite) TestOTPConcurrentWrongCodesShareTheLimit() {
	store := services.NewOTPStore(s.redis, time.Minute)
	code, err := store.Issue(s.ctx, "ada@example.com", services.OTPVerification)
	s.Require().NoError(err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	const guesses = 10
	messages := make(chan string, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var validation models.ErrorValidation
			err := store.Verify(s.ctx, "ada@example.com", services.OTPVerification, wrong)
			if errors.As(err, &validation) {
				messages <- validation.Message
				return
			}
			messages <- err.Error()
		}()
	}
	wg.Wait()
	close(messages)

	counts := map[string]int{}
	for m := range messages {
		counts[m]++
	}
	s.Equal(3, counts["Invalid OTP"])
	s.Equal(guesses-3, counts["Too many failed attempts"])

	err = store.Verify(s.ctx, "ada@example.com", services.OTPVerification, code)
	s.Equal("Too many failed attempts", assertErrorType[models.ErrorValidation](s, err).Message)
}

func (s *ServiceTestSuite) TestResetPassword() {
	s.createUser("Ada", "ada@example.com", models.RoleAuthor)

	err := s.auth.ForgotPassword(s.ctx, "nobody@example.com")
	assertErrorType[models.ErrorNotFound](s, err)

	s.Require().NoError(s.auth.ForgotPassword(s.ctx, "ada@example.com"))
	code := s.mailer.lastCode("ada@example.com", services.OTPReset)

	// A verification code cannot be used for a reset.
	err = s.auth.VerifyEmail(s.ctx, models.VerifyEmailRequest{Email: "ada@example.com", OTP: code})
	assertErrorType[models.ErrorValidation](s, err)

	s.Require().NoError(s.auth.ResetPassword(s.ctx, models.ResetPasswordRequest{
		Email: "ada@example.com", OTP: code, NewPassword: "brand-new-password",
	}))

	_, err = s.auth.Login(s.ctx, models.LoginRequest{Email: "ada@example.com", Password: "brand-new-password", Role: models.RoleAuthor})
	s.NoError(err)
}

func (s *ServiceTestSuite) TestResendVerification() {
	_, err := s.auth.Register(s.ctx, models.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "password123", Role: models.RoleAuthor,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.auth.ResendVerification(s.ctx, "ada@example.com"))
	second := s.mailer.lastCode("ada@example.com", services.OTPVerification)
	s.Require().NoError(s.auth.VerifyEmail(s.ctx, models.VerifyEmailRequest{Email: "ada@example.com", OTP: second}))

	err = s.auth.ResendVerification(s.ctx, "ada@example.com")
	assertErrorType[models.ErrorNotFound](s, err)
}

func (s *ServiceTestSuite) TestSysadminLogin() {
	_, err := s.auth.SysadminLogin(s.ctx, models.SysadminLoginRequest{Email: testSysadminEmail, Password: "nope"})
	assertErrorType[models.ErrorUnauthorized](s, err)

	res, err := s.auth.SysadminLogin(s.ctx, models.SysadminLoginRequest{Email: "ROOT@example.com", Password: testSysadminPassword})
	s.Require().NoError(err)
	s.Equal(int64(60), res.ExpiresIn)
	claims := s.parseToken(res.Token)
	s.Equal(string(models.RoleSystemAdmin), claims["role"])
	s.InDelta(0, claims["user_id"], 0)

	profile, err := s.auth.GetProfile(s.ctx, s.sysadmin)
	s.Require().NoError(err)
	s.Equal(models.RoleSystemAdmin, profile.Role)
}

func (s *ServiceTestSuite) TestProfileUpdateAndDeleteAccount() {
	author := s.createUser("Ada", "ada@example.com", models.RoleAuthor)
	pub := s.submitPaper(author, "Paper")
	s.True(s.uploadExists(pub.Path()))

	updated, err := s.auth.UpdateProfile(s.ctx, author, models.UpdateProfileRequest{Name: "  Ada L. "})
	s.Require().NoError(err)
	s.Equal("Ada L.", updated.Name)

	err = s.auth.DeleteAccount(s.ctx, author, models.DeleteAccountRequest{Password: "wrong"})
	assertErrorType[models.ErrorUnauthorized](s, err)

	s.Require().NoError(s.auth.DeleteAccount(s.ctx, author, models.DeleteAccountRequest{Password: "password123"}))
	s.False(s.uploadExists(pub.Path()))

	_, err = s.auth.GetProfile(s.ctx, author)
	assertErrorType[models.ErrorNotFound](s, err)

	err = s.auth.DeleteAccount(s.ctx, s.sysadmin, models.DeleteAccountRequest{Password: "x"})
	assertErrorType[models.ErrorForbidden](s, err)
}

func (s *ServiceTestSuite) TestEmailValidatorFormat() {
	v := services.NewEmailValidator(false)
	s.NoError(v.Validate(s.ctx, "someone@example.org"))
	s.Error(v.Validate(s.ctx, "someone@localhost"))
	s.Error(v.Validate(s.ctx, "Some One <someone@example.org>"))
}
