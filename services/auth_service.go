package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"publication-system/config"
	"publication-system/models"
	"publication-system/repositories"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const systemAdminName = "System Administrator"

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	SysadminLogin(ctx context.Context, req models.SysadminLoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, actor models.Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.User, error)
	DeleteAccount(ctx context.Context, actor models.Actor, req models.DeleteAccountRequest) error
}

// SysadminCredentials is the configured system admin login.
type SysadminCredentials struct {
	Email    string
	Password string
}

type authService struct {
	userRepo   repositories.UserRepository
	cleaner    *userCleaner
	otp        OTPStore
	mailer     Mailer
	emails     *EmailValidator
	jwt        config.JWT
	sysadmin   SysadminCredentials
	logger     *slog.Logger
	bcryptCost int
}

func NewAuthService(
	userRepo repositories.UserRepository,
	publicationRepo repositories.PublicationRepository,
	files FileStore,
	otp OTPStore,
	mailer Mailer,
	emails *EmailValidator,
	jwtConfig config.JWT,
	sysadmin SysadminCredentials,
	logger *slog.Logger,
) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		userRepo:   userRepo,
		cleaner:    &userCleaner{users: userRepo, publications: publicationRepo, files: files, logger: logger},
		otp:        otp,
		mailer:     mailer,
		emails:     emails,
		jwt:        jwtConfig,
		sysadmin:   sysadmin,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.ErrorValidation{Message: "Name is required"}
	}
	if len(req.Password) < 8 {
		return nil, models.ErrorValidation{Message: "Password must be at least 8 characters long"}
	}
	if !req.Role.Valid() {
		return nil, models.ErrorValidation{Message: "Role must be author or admin"}
	}
	if err := s.emails.Validate(ctx, email); err != nil {
		return nil, err
	}

	// Check if user already exists
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrorConflict{Message: "User already exists with this email"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrorConflict{Message: "User already exists with this email"}
		}
		return nil, err
	}

	if err := s.sendCode(ctx, email, OTPVerification); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return &models.RegisterResponse{RequiresVerification: true, Email: email}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error {
	email := normalizeEmail(req.Email)
	if err := s.otp.Verify(ctx, email, OTPVerification, req.OTP); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User not found")
	}
	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	if err := s.mailer.SendWelcome(ctx, email, user.Name); err != nil {
		s.logger.WarnContext(ctx, "welcome email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil || user.EmailVerified {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return models.ErrorNotFound{Message: "User not found or already verified"}
	}
	return s.sendCode(ctx, email, OTPVerification)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return notFound(err, "User not found")
	}
	return s.sendCode(ctx, email, OTPReset)
}

func (s *authService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return models.ErrorValidation{Message: "Password must be at least 8 characters long"}
	}
	email := normalizeEmail(req.Email)
	if err := s.otp.Verify(ctx, email, OTPReset, req.OTP); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User not found")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrorUnauthorized{Message: "Invalid email or password"}
		}
		return nil, err
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.ErrorUnauthorized{Message: "Invalid email or password"}
	}
	if !user.EmailVerified {
		return nil, models.ErrorUnauthorized{Message: "Email not verified. Please check your email for verification code."}
	}
	if user.Role != req.Role {
		return nil, models.ErrorForbidden{Message: fmt.Sprintf("User is registered as %s, not %s", user.Role, req.Role)}
	}

	token, err := s.generateToken(user.ID, user.Name, user.Role, s.jwt.Expiration)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.jwt.Expiration.Seconds()),
		User:      user,
	}, nil
}

func (s *authService) SysadminLogin(ctx context.Context, req models.SysadminLoginRequest) (*models.AuthResponse, error) {
	if s.sysadmin.Email == "" || s.sysadmin.Password == "" {
		return nil, models.ErrorUnauthorized{Message: "System admin login is disabled"}
	}
	emailOK := subtle.ConstantTimeCompare([]byte(normalizeEmail(req.Email)), []byte(normalizeEmail(s.sysadmin.Email))) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.sysadmin.Password)) == 1
	if !emailOK || !passwordOK {
		return nil, models.ErrorUnauthorized{Message: "Invalid system admin credentials"}
	}

	token, err := s.generateToken(0, systemAdminName, models.RoleSystemAdmin, s.jwt.SysadminExpiration)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "system admin logged in")
	return &models.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.jwt.SysadminExpiration.Seconds()),
		User:      s.sysadminUser(),
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.IsSystemAdmin() {
		return s.sysadminUser(), nil
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.User, error) {
	if actor.IsSystemAdmin() {
		return nil, models.ErrorForbidden{Message: "The system admin has no profile"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.ErrorValidation{Message: "Name is required"}
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	user.Name = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) DeleteAccount(ctx context.Context, actor models.Actor, req models.DeleteAccountRequest) error {
	if actor.IsSystemAdmin() {
		return models.ErrorForbidden{Message: "The system admin has no account"}
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFound(err, "User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return models.ErrorUnauthorized{Message: "Invalid password"}
	}
	return s.cleaner.remove(ctx, user.ID)
}

func (s *authService) sendCode(ctx context.Context, email string, purpose OTPPurpose) error {
	code, err := s.otp.Issue(ctx, email, purpose)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, email, code, purpose); err != nil {
		return fmt.Errorf("send %s email: %w", purpose, err)
	}
	return nil
}

func (s *authService) sysadminUser() *models.User {
	return &models.User{
		Name:          systemAdminName,
		Email:         normalizeEmail(s.sysadmin.Email),
		Role:          models.RoleSystemAdmin,
		EmailVerified: true,
	}
}

func (s *authService) generateToken(userID uint, name string, role models.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"role":    role,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwt.Secret)
}
