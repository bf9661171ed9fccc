package services

import (
	"context"
	"errors"
	"io"

	"publication-system/models"
	"publication-system/storage"

	"gorm.io/gorm"
)

// FileStore is the part of storage.Manager the workflows depend on.
type FileStore interface {
	Store(ctx context.Context, r io.Reader) (string, error)
	Canonicalize(ctx context.Context, title string, id uint, current string) (storage.Canonicalization, error)
	Revert(ctx context.Context, result storage.Canonicalization, previous string) error
	Delete(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]storage.File, error)
	Purge(ctx context.Context) error
}

// notFound turns gorm's missing-row error into a NotFound with message.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrorNotFound{Message: message}
	}
	return err
}
