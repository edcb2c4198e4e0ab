package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/DF-AutoPilot/droneforce-functions/internal/config"
)

// minioStorage implements the Storage interface using an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new S3-compatible storage client backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStorage{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// DownloadToFile streams the object into a temp file under dir and
// returns its path. On any failure the partial file is removed.
func (m *minioStorage) DownloadToFile(ctx context.Context, key, dir string) (string, error) {
	tmp, err := os.CreateTemp(dir, "droneforce-*.log")
	if err != nil {
		return "", fmt.Errorf("create local copy: %w", err)
	}
	path := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close local copy: %w", err)
	}
	if err := m.client.FGetObject(ctx, m.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("download object %s: %w", key, err)
	}
	return path, nil
}

// Stat fetches object metadata via a HEAD request.
func (m *minioStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	st, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", key, err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		Metadata:     st.UserMetadata,
	}, nil
}

// SetObjectTags replaces the object's tag set.
func (m *minioStorage) SetObjectTags(ctx context.Context, key string, kv map[string]string) error {
	t, err := tags.NewTags(kv, false)
	if err != nil {
		return fmt.Errorf("build tags: %w", err)
	}
	if err := m.client.PutObjectTagging(ctx, m.bucket, key, t, minio.PutObjectTaggingOptions{}); err != nil {
		return fmt.Errorf("tag object %s: %w", key, err)
	}
	return nil
}

// PresignGet generates a pre-signed URL for GET with the specified expiry.
func (m *minioStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
