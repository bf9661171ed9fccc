package repositories

import (
	"context"

	"publication-system/models"

	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.ConferenceSubmission) error
	Exists(ctx context.Context, conferenceID, paperID uint) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.ConferenceSubmission, error)
	UpdateStatusIfPending(ctx context.Context, id uint, status models.PublicationStatus) (bool, error)
	ListByConference(ctx context.Context, conferenceID uint) ([]models.ConferenceSubmission, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.ConferenceSubmission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.ConferenceSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Exists(ctx context.Context, conferenceID, paperID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConferenceSubmission{}).
		Where("conference_id = ? AND paper_id = ?", conferenceID, paperID).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (*models.ConferenceSubmission, error) {
	var submission models.ConferenceSubmission
	err := r.db.WithContext(ctx).First(&submission, id).Error
	return &submission, err
}

// UpdateStatusIfPending reports false when the submission was already decided.
func (r *submissionRepository) UpdateStatusIfPending(ctx context.Context, id uint, status models.PublicationStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ConferenceSubmission{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *submissionRepository) ListByConference(ctx context.Context, conferenceID uint) ([]models.ConferenceSubmission, error) {
	var submissions []models.ConferenceSubmission
	err := r.withPaper(ctx).
		Where("conference_submissions.conference_id = ?", conferenceID).
		Order("conference_submissions.submitted_at desc, conference_submissions.id desc").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.ConferenceSubmission, error) {
	var submissions []models.ConferenceSubmission
	err := r.withPaper(ctx).
		Where("conference_submissions.author_id = ?", authorID).
		Order("conference_submissions.submitted_at desc, conference_submissions.id desc").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) withPaper(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ConferenceSubmission{}).
		Select("conference_submissions.*, publications.title AS paper_title, users.name AS author_name").
		Joins("JOIN publications ON publications.id = conference_submissions.paper_id").
		Joins("JOIN users ON users.id = conference_submissions.author_id")
}
