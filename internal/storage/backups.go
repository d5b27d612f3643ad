package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ilng/roster/internal/store"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

const snapshotPrefix = "snapshots/"

// Backups writes whole store snapshots to object storage, one object per
// backup.
type Backups struct {
	backend ObjectStorage
	now     func() time.Time
}

func NewBackups(backend ObjectStorage) *Backups {
	return &Backups{backend: backend, now: time.Now}
}

// SnapshotKey is the object key of a backup taken at t.
func SnapshotKey(t time.Time) string {
	return snapshotPrefix + t.UTC().Format("20060102T150405.000Z") + ".json"
}

// UploadSnapshot encodes snap and stores it under a timestamped key.
func (b *Backups) UploadSnapshot(ctx context.Context, snap *store.Snapshot) (string, error) {
	data, err := store.Encode(snap)
	if err != nil {
		return "", err
	}
	key := SnapshotKey(b.now())
	if err := b.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	log.WithFields(log.Fields{
		"bucket": b.backend.Bucket(),
		"key":    key,
		"bytes":  len(data),
	}).Info("snapshot uploaded")
	return key, nil
}

// DownloadSnapshot reads and decodes the backup stored under key. A bare
// timestamp is accepted in place of the full key.
func (b *Backups) DownloadSnapshot(ctx context.Context, key string) (*store.Snapshot, error) {
	if !strings.HasPrefix(key, snapshotPrefix) {
		key = snapshotPrefix + strings.TrimSuffix(key, ".json") + ".json"
	}
	r, err := b.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return store.Decode(data)
}

// ListSnapshots returns the keys of every stored backup, newest first.
func (b *Backups) ListSnapshots(ctx context.Context) ([]string, error) {
	keys, err := b.backend.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", snapshotPrefix, err)
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			out = append(out, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}
