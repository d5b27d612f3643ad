package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ilng/roster/config"
)

// ObjectStorage defines the object operations backups need from a backend.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns every key under prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	Bucket() string
}

// Open builds the backend named by cfg.BackupBackend and makes sure its
// bucket exists. It returns nil when backups are disabled.
func Open(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.BackupBackend)) {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown backup backend %q", cfg.BackupBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.BackupBackend, err)
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
