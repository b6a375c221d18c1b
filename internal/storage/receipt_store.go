package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Config holds object storage configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ReceiptStore stores original receipt files
type ReceiptStore interface {
	// Upload stores a receipt under reportID/filename and returns the object path
	Upload(ctx context.Context, reportID, filename string, data []byte) (string, error)
	// Delete removes a stored receipt
	Delete(ctx context.Context, path string) error
	// PublicURL returns a URL under which the object can be fetched
	PublicURL(path string) string
}

// MinioReceiptStore implements ReceiptStore on an S3-compatible bucket
type MinioReceiptStore struct {
	client *minio.Client
	cfg    Config
	logger *zap.Logger
}

// NewMinioReceiptStore creates a receipt store backed by MinIO/S3
func NewMinioReceiptStore(cfg Config, logger *zap.Logger) (*MinioReceiptStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioReceiptStore{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// EnsureBucket creates the receipts bucket if it does not exist
func (s *MinioReceiptStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info("Created receipts bucket", zap.String("bucket", s.cfg.Bucket))
	}

	return nil
}

// Upload stores a receipt under reportID/filename
func (s *MinioReceiptStore) Upload(ctx context.Context, reportID, filename string, data []byte) (string, error) {
	path := ObjectPath(reportID, filename)

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, path,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: ContentTypeFor(filename)},
	)
	if err != nil {
		s.logger.Error("Failed to upload receipt",
			zap.String("path", path),
			zap.Error(err))
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	return path, nil
}

// Delete removes a stored receipt
func (s *MinioReceiptStore) Delete(ctx context.Context, path string) error {
	err := s.client.RemoveObject(ctx, s.cfg.Bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

// PublicURL returns a URL for the object (bucket policy permitting)
func (s *MinioReceiptStore) PublicURL(path string) string {
	protocol := "http"
	if s.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.cfg.Endpoint, s.cfg.Bucket, path)
}

// ObjectPath builds the storage path for a receipt: reportID/filename
func ObjectPath(reportID, filename string) string {
	return fmt.Sprintf("%s/%s", reportID, filename)
}

// ContentTypeFor determines the content type from a filename extension
func ContentTypeFor(filename string) string {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = strings.ToLower(filename[i+1:])
	}

	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "heic", "heif":
		return "image/heic"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
