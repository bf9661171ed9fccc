package repositories

import (
	"context"

	"publication-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChairRepository interface {
	Assign(ctx context.Context, conferenceID, userID uint) error
	IsChair(ctx context.Context, conferenceID, userID uint) (bool, error)
	ListByConference(ctx context.Context, conferenceID uint) ([]models.ConferenceChair, error)
}

type chairRepository struct {
	db *gorm.DB
}

func NewChairRepository(db *gorm.DB) ChairRepository {
	return &chairRepository{db: db}
}

// Assign is idempotent: an existing (conference, user) pair is left as is.
func (r *chairRepository) Assign(ctx context.Context, conferenceID, userID uint) error {
	chair := models.ConferenceChair{ConferenceID: conferenceID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&chair).Error
}

func (r *chairRepository) IsChair(ctx context.Context, conferenceID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConferenceChair{}).
		Where("conference_id = ? AND user_id = ?", conferenceID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *chairRepository) ListByConference(ctx context.Context, conferenceID uint) ([]models.ConferenceChair, error) {
	var chairs []models.ConferenceChair
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("conference_id = ?", conferenceID).
		Order("assigned_at asc, id asc").
		Find(&chairs).Error
	return chairs, err
}
