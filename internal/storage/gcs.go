// Package storage deletes cover-image blobs from object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	docsysSvc "motion/internal/domain/services/docsystem"
)

// GCSStorage deletes objects from one Google Cloud Storage bucket
type GCSStorage struct {
	client *gcs.Client
	bucket string
	logger *slog.Logger
}

// NewGCSStorage creates a GCS client using application default credentials
func NewGCSStorage(ctx context.Context, bucket string, logger *slog.Logger) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket, logger: logger}, nil
}

// Close closes the storage client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Delete removes the object at rawURL. Objects that are already gone count as deleted.
func (s *GCSStorage) Delete(ctx context.Context, rawURL string) error {
	bucket, object, err := ParseObjectURL(rawURL)
	if err != nil {
		return err
	}
	if bucket != s.bucket {
		return fmt.Errorf("object %s is outside bucket %s", rawURL, s.bucket)
	}

	if err := s.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		if isNotFound(err) {
			s.logger.Debug("cover image already deleted", "bucket", bucket, "object", object)
			return nil
		}
		return fmt.Errorf("delete gs://%s/%s: %w", bucket, object, err)
	}

	s.logger.Info("cover image deleted", "bucket", bucket, "object", object)
	return nil
}

// ParseObjectURL splits gs://bucket/object and
// https://storage.googleapis.com/bucket/object URLs.
func ParseObjectURL(rawURL string) (bucket, object string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse object url: %w", err)
	}

	var path string
	switch {
	case u.Scheme == "gs":
		bucket = u.Host
		path = strings.TrimPrefix(u.Path, "/")
	case (u.Scheme == "https" || u.Scheme == "http") && u.Host == "storage.googleapis.com":
		bucket, path, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	default:
		return "", "", fmt.Errorf("unsupported object url %q", rawURL)
	}

	if bucket == "" || path == "" {
		return "", "", fmt.Errorf("object url %q has no bucket or object", rawURL)
	}
	return bucket, path, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// Noop is used when no bucket is configured
type Noop struct {
	logger *slog.Logger
}

// NewNoop creates an object storage that only logs
func NewNoop(logger *slog.Logger) docsysSvc.ObjectStorage {
	return &Noop{logger: logger}
}

// Delete logs the URL and returns nil
func (n *Noop) Delete(ctx context.Context, rawURL string) error {
	n.logger.Debug("object storage not configured, skipping delete", "url", rawURL)
	return nil
}

var _ docsysSvc.ObjectStorage = (*GCSStorage)(nil)
