package models

import "time"

type ConferenceType string

const (
	ConferenceUpcoming ConferenceType = "upcoming"
	ConferencePast     ConferenceType = "past"
)

type Conference struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	Name            string         `json:"name" gorm:"not null"`
	Date            time.Time      `json:"date" gorm:"index;not null"`
	Location        string         `json:"location" gorm:"not null"`
	Description     string         `json:"description" gorm:"type:text"`
	ConferenceType  ConferenceType `json:"conference_type" gorm:"-"`
	WebsiteURL      string         `json:"website_url"`
	RegistrationFee string         `json:"registration_fee"`
	CreatedBy       uint           `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// StartOfDay truncates t to midnight UTC, the granularity conferences are
// classified at.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifyConference derives upcoming/past from the conference date.
// A conference held today is still upcoming.
func ClassifyConference(date, now time.Time) ConferenceType {
	if StartOfDay(date).Before(StartOfDay(now)) {
		return ConferencePast
	}
	return ConferenceUpcoming
}

func (c *Conference) IsUpcoming(now time.Time) bool {
	return ClassifyConference(c.Date, now) == ConferenceUpcoming
}

// Classify fills ConferenceType relative to now. It is not persisted.
func (c *Conference) Classify(now time.Time) {
	c.ConferenceType = ClassifyConference(c.Date, now)
}

type ConferenceChair struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	ConferenceID uint      `json:"conference_id" gorm:"not null;uniqueIndex:idx_conference_chair"`
	UserID       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_conference_chair"`
	User         *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	AssignedAt   time.Time `json:"assigned_at" gorm:"autoCreateTime"`
}

type ConferenceSubmission struct {
	ID           uint              `json:"id" gorm:"primarykey"`
	ConferenceID uint              `json:"conference_id" gorm:"not null;uniqueIndex:idx_conference_paper"`
	PaperID      uint              `json:"paper_id" gorm:"not null;uniqueIndex:idx_conference_paper"`
	AuthorID     uint              `json:"author_id" gorm:"index;not null"`
	Status       PublicationStatus `json:"status" gorm:"not null;default:'pending'"`
	SubmittedAt  time.Time         `json:"submitted_at" gorm:"autoCreateTime"`
	PaperTitle   string            `json:"paper_title,omitempty" gorm:"->;-:migration"`
	AuthorName   string            `json:"author_name,omitempty" gorm:"->;-:migration"`
}

// MigrateModels lists every table owned by the application.
var MigrateModels = []any{
	&User{},
	&Publication{},
	&Conference{},
	&ConferenceChair{},
	&ConferenceSubmission{},
}
