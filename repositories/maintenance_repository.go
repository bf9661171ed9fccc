package repositories

import (
	"context"

	"publication-system/models"

	"gorm.io/gorm"
)

// MaintenanceRepository holds whole-database operations of the system admin.
type MaintenanceRepository interface {
	ResetAll(ctx context.Context) error
}

type maintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

// ResetAll deletes every row of every table in one transaction, children
// before parents.
func (r *maintenanceRepository) ResetAll(ctx context.Context) error {
	ordered := []any{
		&models.ConferenceSubmission{},
		&models.ConferenceChair{},
		&models.Publication{},
		&models.Conference{},
		&models.User{},
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range ordered {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
