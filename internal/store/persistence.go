package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Persister loads and saves the whole snapshot document.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// DefaultFileName is the snapshot file inside the data directory.
const DefaultFileName = "database.json"

// FilePersister keeps the snapshot in a single JSON file.
type FilePersister struct {
	path string
	mu   sync.Mutex
}

// NewFilePersister creates dir if needed and returns a persister for
// dir/database.json.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FilePersister{path: filepath.Join(dir, DefaultFileName)}, nil
}

// Path returns the snapshot file path.
func (p *FilePersister) Path() string {
	return p.path
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (p *FilePersister) Load(_ context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	content, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewSnapshot(), nil
		}
		return nil, err
	}
	return Decode(content)
}

// Save writes the snapshot to a temp file and renames it over the old
// one, so a crash leaves either the previous or the new document.
func (p *FilePersister) Save(_ context.Context, snap *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := Encode(snap)
	if err != nil {
		return err
	}

	tempPath := p.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, p.path)
}

// Encode serialises a snapshot as indented JSON.
func Encode(snap *Snapshot) ([]byte, error) {
	c := *snap
	c.normalize()
	return json.MarshalIndent(&c, "", "  ")
}

// Decode parses a snapshot document. Unknown fields are rejected so that
// a foreign document is not silently accepted as empty.
func Decode(data []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewSnapshot(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.normalize()
	return snap, nil
}

// MemoryPersister keeps the last saved document in memory. Useful for
// tests and for running without durable storage.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
	// Fail, when set, is returned by Save.
	Fail error
}

func (m *MemoryPersister) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Decode(m.data)
}

func (m *MemoryPersister) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}
