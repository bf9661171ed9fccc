package repositories

import (
	"context"
	"time"

	"publication-system/models"

	"gorm.io/gorm"
)

type ConferenceRepository interface {
	Create(ctx context.Context, conference *models.Conference) error
	GetByID(ctx context.Context, id uint) (*models.Conference, error)
	List(ctx context.Context, kind models.ConferenceType, now time.Time) ([]models.Conference, error)
	Update(ctx context.Context, conference *models.Conference) error
	Delete(ctx context.Context, id uint) error
	CountByType(ctx context.Context, now time.Time) ([]models.CountByKey, error)
}

type conferenceRepository struct {
	db *gorm.DB
}

func NewConferenceRepository(db *gorm.DB) ConferenceRepository {
	return &conferenceRepository{db: db}
}

func (r *conferenceRepository) Create(ctx context.Context, conference *models.Conference) error {
	return r.db.WithContext(ctx).Create(conference).Error
}

func (r *conferenceRepository) GetByID(ctx context.Context, id uint) (*models.Conference, error) {
	var conference models.Conference
	err := r.db.WithContext(ctx).First(&conference, id).Error
	return &conference, err
}

// List filters by kind relative to now. Upcoming conferences come soonest
// first, past ones most recent first; an empty kind lists everything by date.
func (r *conferenceRepository) List(ctx context.Context, kind models.ConferenceType, now time.Time) ([]models.Conference, error) {
	var conferences []models.Conference
	today := models.StartOfDay(now)

	query := r.db.WithContext(ctx).Model(&models.Conference{})
	switch kind {
	case models.ConferenceUpcoming:
		query = query.Where("date >= ?", today).Order("date asc, id asc")
	case models.ConferencePast:
		query = query.Where("date < ?", today).Order("date desc, id desc")
	default:
		query = query.Order("date asc, id asc")
	}

	if err := query.Find(&conferences).Error; err != nil {
		return nil, err
	}
	for i := range conferences {
		conferences[i].Classify(now)
	}
	return conferences, nil
}

func (r *conferenceRepository) Update(ctx context.Context, conference *models.Conference) error {
	return r.db.WithContext(ctx).Save(conference).Error
}

// Delete removes the conference with its chairs and submissions.
func (r *conferenceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conference_id = ?", id).Delete(&models.ConferenceSubmission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conference_id = ?", id).Delete(&models.ConferenceChair{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Conference{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *conferenceRepository) CountByType(ctx context.Context, now time.Time) ([]models.CountByKey, error) {
	today := models.StartOfDay(now)
	db := r.db.WithContext(ctx)

	var upcoming, past int64
	if err := db.Model(&models.Conference{}).Where("date >= ?", today).Count(&upcoming).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Conference{}).Where("date < ?", today).Count(&past).Error; err != nil {
		return nil, err
	}
	return []models.CountByKey{
		{Key: string(models.ConferencePast), Count: past},
		{Key: string(models.ConferenceUpcoming), Count: upcoming},
	}, nil
}
