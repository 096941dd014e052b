// Package media stores issue photo attachments in S3-compatible object
// storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured indicates no object storage backend was configured.
var ErrNotConfigured = errors.New("media: object storage not configured")

// Photo describes a stored attachment.
type Photo struct {
	Key         string    `json:"key"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
	URL         string    `json:"url,omitempty"`
}

// Store uploads and lists issue photos in a single bucket. A nil *Store is
// valid and reports ErrNotConfigured from every method, so callers don't
// need to branch on whether storage is wired.
type Store struct {
	client *minio.Client
	bucket string
}

// Config holds object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New connects to the object store and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: connect: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("media: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("media: create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// UploadIssuePhoto stores a photo under issues/{issueID}/{filename}.
func (s *Store) UploadIssuePhoto(ctx context.Context, issueID int64, filename, contentType string, r io.Reader, size int64) (*Photo, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	name := sanitizeObjectName(filename)
	if name == "" {
		return nil, errors.New("media: empty filename")
	}
	key := fmt.Sprintf("issues/%d/%s", issueID, name)

	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("media: upload %s: %w", key, err)
	}

	return &Photo{
		Key:         key,
		Filename:    name,
		Size:        info.Size,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// ListIssuePhotos lists photos for an issue, each with a presigned URL valid
// for one hour.
func (s *Store) ListIssuePhotos(ctx context.Context, issueID int64) ([]Photo, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}
	prefix := fmt.Sprintf("issues/%d/", issueID)

	photos := []Photo{}
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("media: list %s: %w", prefix, object.Err)
		}
		photo := Photo{
			Key:        object.Key,
			Filename:   path.Base(object.Key),
			Size:       object.Size,
			UploadedAt: object.LastModified,
		}
		if u, err := s.client.PresignedGetObject(ctx, s.bucket, object.Key, time.Hour, url.Values{}); err == nil {
			photo.URL = u.String()
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

// Ping verifies the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return ErrNotConfigured
	}
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("media: ping: %w", err)
	}
	return nil
}

// sanitizeObjectName strips path separators and keeps a conservative
// character set so user-supplied filenames cannot escape the issue prefix.
func sanitizeObjectName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), ".")
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}
