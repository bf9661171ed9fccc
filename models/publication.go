package models

import (
	"time"
)

type PublicationStatus string

const (
	StatusPending  PublicationStatus = "pending"
	StatusApproved PublicationStatus = "approved"
	StatusRejected PublicationStatus = "rejected"
)

// IsDecision reports whether s is a valid moderation outcome.
func (s PublicationStatus) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

type AccessType string

const (
	AccessFree         AccessType = "free"
	AccessPaid         AccessType = "paid"
	AccessSubscription AccessType = "subscription"
)

func (a AccessType) Valid() bool {
	switch a {
	case AccessFree, AccessPaid, AccessSubscription:
		return true
	}
	return false
}

type Publication struct {
	ID              uint              `json:"id" gorm:"primarykey"`
	Title           string            `json:"title" gorm:"not null"`
	Abstract        string            `json:"abstract" gorm:"type:text;not null"`
	PublicationDate time.Time         `json:"publication_date" gorm:"not null"`
	Status          PublicationStatus `json:"status" gorm:"index;not null;default:'pending'"`
	AuthorID        uint              `json:"author_id" gorm:"index;not null"`
	Author          *User             `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	PDFPath         *string           `json:"pdf_path"`
	AccessType      AccessType        `json:"access_type" gorm:"not null;default:'free'"`
	Keywords        string            `json:"keywords"`
	DOI             string            `json:"doi"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Path returns the stored file name, or "" when none is recorded.
func (p *Publication) Path() string {
	if p.PDFPath == nil {
		return ""
	}
	return *p.PDFPath
}

// LibraryEntry is one row of the public library: either an approved
// publication or a raw PDF in the uploads directory with no record.
type LibraryEntry struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Abstract        string     `json:"abstract"`
	AccessType      AccessType `json:"access_type"`
	AuthorName      string     `json:"author_name"`
	AuthorEmail     string     `json:"author_email"`
	PublicationDate time.Time  `json:"publication_date"`
	DOI             string     `json:"doi,omitempty"`
	Keywords        string     `json:"keywords"`
	PDFPath         string     `json:"pdf_path"`
}
