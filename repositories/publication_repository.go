package repositories

import (
	"context"
	"strings"
	"time"

	"publication-system/models"

	"gorm.io/gorm"
)

type PublicationRepository interface {
	Create(ctx context.Context, publication *models.Publication) error
	GetByID(ctx context.Context, id uint) (*models.Publication, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Publication, error)
	ListAll(ctx context.Context, params models.ListParams) ([]models.Publication, int64, error)
	ListApproved(ctx context.Context, params models.LibraryParams) ([]models.Publication, error)
	RecordedPaths(ctx context.Context) ([]string, error)
	DecideIfPending(ctx context.Context, id uint, status models.PublicationStatus, pdfPath *string) (bool, error)
	UpdatePath(ctx context.Context, id uint, pdfPath string) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context) ([]models.CountByKey, error)
}

type publicationRepository struct {
	db *gorm.DB
}

func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{db: db}
}

func (r *publicationRepository) Create(ctx context.Context, publication *models.Publication) error {
	return r.db.WithContext(ctx).Create(publication).Error
}

func (r *publicationRepository) GetByID(ctx context.Context, id uint) (*models.Publication, error) {
	var publication models.Publication
	err := r.db.WithContext(ctx).Preload("Author").First(&publication, id).Error
	return &publication, err
}

func (r *publicationRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Publication, error) {
	var publications []models.Publication
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc, id desc").
		Find(&publications).Error
	return publications, err
}

func (r *publicationRepository) ListAll(ctx context.Context, params models.ListParams) ([]models.Publication, int64, error) {
	var publications []models.Publication
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Publication{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	err := db.Preload("Author").
		Order("created_at desc, id desc").
		Offset(offset).Limit(params.Limit).
		Find(&publications).Error
	return publications, total, err
}

// ListApproved returns the approved publications matching params, newest
// publication date first, with their authors loaded.
func (r *publicationRepository) ListApproved(ctx context.Context, params models.LibraryParams) ([]models.Publication, error) {
	var publications []models.Publication

	query := r.db.WithContext(ctx).Model(&models.Publication{}).
		Preload("Author").
		Joins("JOIN users ON users.id = publications.author_id").
		Where("publications.status = ?", models.StatusApproved)

	if params.AccessType != "" {
		query = query.Where("publications.access_type = ?", params.AccessType)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where(
			"LOWER(publications.title) LIKE ? OR LOWER(publications.abstract) LIKE ? OR LOWER(publications.keywords) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if author := strings.TrimSpace(params.Author); author != "" {
		query = query.Where("LOWER(users.name) LIKE ?", likePattern(author))
	}

	err := query.Order("publications.publication_date desc, publications.id desc").
		Find(&publications).Error
	return publications, err
}

// RecordedPaths lists every pdf_path referenced by a publication, whatever
// its status.
func (r *publicationRepository) RecordedPaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&models.Publication{}).
		Where("pdf_path IS NOT NULL AND pdf_path <> ''").
		Pluck("pdf_path", &paths).Error
	return paths, err
}

// DecideIfPending moves a pending publication to status and, when pdfPath is
// set, records the new file location in the same statement. It reports
// false when the row was no longer pending.
func (r *publicationRepository) DecideIfPending(ctx context.Context, id uint, status models.PublicationStatus, pdfPath *string) (bool, error) {
	fields := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if pdfPath != nil {
		fields["pdf_path"] = *pdfPath
	}
	res := r.db.WithContext(ctx).Model(&models.Publication{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *publicationRepository) UpdatePath(ctx context.Context, id uint, pdfPath string) error {
	return r.UpdateFields(ctx, id, map[string]any{"pdf_path": pdfPath})
}

func (r *publicationRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Publication{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the publication and its conference submissions together.
func (r *publicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", id).Delete(&models.ConferenceSubmission{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Publication{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *publicationRepository) CountByStatus(ctx context.Context) ([]models.CountByKey, error) {
	var counts []models.CountByKey
	err := r.db.WithContext(ctx).Model(&models.Publication{}).
		Select(`status AS "key", COUNT(*) AS "count"`).
		Group("status").
		Order("status").
		Scan(&counts).Error
	return counts, err
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
