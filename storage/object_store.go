package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror receives a copy of every canonical file, keyed by file name.
type Mirror interface {
	Put(ctx context.Context, key, path string) error
	Delete(ctx context.Context, key string) error
}

// MinioMirror implements Mirror for MinIO/S3 compatible storage.
type MinioMirror struct {
	client *minio.Client
	bucket string
}

// NewMinioMirror connects to MinIO and ensures the bucket exists.
func NewMinioMirror(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioMirror, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioMirror{client: client, bucket: bucket}, nil
}

func (m *MinioMirror) Put(ctx context.Context, key, path string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, key, path, minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (m *MinioMirror) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (m *Manager) mirrorPut(ctx context.Context, key, path string) {
	if m.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.mirror.Put(ctx, key, path); err != nil {
		m.logger.Warn("mirror upload failed", "key", key, "error", err)
	}
}

func (m *Manager) unmirror(ctx context.Context, key string) {
	if m.mirror == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.mirror.Delete(ctx, key); err != nil {
		m.logger.Warn("mirror delete failed", "key", key, "error", err)
	}
}
