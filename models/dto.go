package models

type RegisterRequest struct {
	Name     string   `json:"name" validate:"required,min=1,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"role" validate:"required,oneof=author admin"`
}

type LoginRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Role     UserRole `json:"role" validate:"required,oneof=author admin"`
}

type SysadminLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      *User  `json:"user,omitempty"`
}

type RegisterResponse struct {
	RequiresVerification bool   `json:"requiresVerification"`
	Email                string `json:"email"`
}

// SubmitPublicationRequest is bound from the multipart form; the file part
// is read separately.
type SubmitPublicationRequest struct {
	Title           string `form:"title" validate:"required,max=500"`
	Abstract        string `form:"abstract" validate:"required"`
	PublicationDate string `form:"publicationDate" validate:"required"`
}

type DecisionRequest struct {
	Status PublicationStatus `json:"status" validate:"required,oneof=approved rejected"`
}

type UpdateAccessRequest struct {
	AccessType AccessType `json:"access_type" validate:"required,oneof=free paid subscription"`
	Keywords   string     `json:"keywords"`
	DOI        string     `json:"doi"`
}

// UpdatePublicationMetaRequest is a partial update; nil fields are kept.
type UpdatePublicationMetaRequest struct {
	AccessType *AccessType `json:"access_type" validate:"omitempty,oneof=free paid subscription"`
	Keywords   *string     `json:"keywords"`
	DOI        *string     `json:"doi"`
}

type LibraryParams struct {
	AccessType string `form:"access_type"`
	Search     string `form:"search"`
	Author     string `form:"author"`
}

type ListParams struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

type ConferenceRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	Date            string `json:"date" validate:"required"`
	Location        string `json:"location" validate:"required"`
	Description     string `json:"description"`
	WebsiteURL      string `json:"website_url" validate:"omitempty,url"`
	RegistrationFee string `json:"registration_fee"`
}

type ConferenceSubmitRequest struct {
	PaperID      uint `json:"paperId" validate:"required"`
	ConferenceID uint `json:"conferenceId" validate:"required"`
}

type AssignChairRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

type UpdateUserRequest struct {
	Name          string   `json:"name" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Role          UserRole `json:"role" validate:"required,oneof=author admin"`
	EmailVerified bool     `json:"email_verified"`
}

type ResetDatabaseRequest struct {
	Confirm string `json:"confirm"`
}

type CountByKey struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type Statistics struct {
	Users             []CountByKey `json:"users"`
	Publications      []CountByKey `json:"publications"`
	Conferences       []CountByKey `json:"conferences"`
	TotalUsers        int64        `json:"totalUsers"`
	TotalPublications int64        `json:"totalPublications"`
	TotalConferences  int64        `json:"totalConferences"`
}
