// Package store owns every entity collection. All access goes through
// View and Update, which hand a transaction to a callback. Writes are
// serialised: Update works on a private copy of the snapshot, persists
// it and only then makes it visible, so a failed callback or a failed
// save leaves nothing behind.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the in-memory snapshot plus its persister.
type Store struct {
	mu        sync.RWMutex
	snap      *Snapshot
	persister Persister
	now       func() time.Time
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the record id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Open loads the snapshot through p. A nil persister keeps everything in
// memory.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if p == nil {
		s.snap = NewSnapshot()
		return s, nil
	}
	snap, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.snap = snap
	return s, nil
}

// NewMemory returns a store without durable storage.
func NewMemory(opts ...Option) *Store {
	s, _ := Open(context.Background(), nil, opts...)
	return s
}

// View runs fn against the committed snapshot under a read lock.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{snap: s.snap, store: s})
}

// Update runs fn against a private copy of the snapshot. When fn returns
// nil the copy is persisted and becomes the committed snapshot. Only one
// Update runs at a time.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.snap.Clone()
	tx := &Tx{snap: work, store: s, writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	if s.persister != nil {
		if err := s.persister.Save(ctx, work); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}
	s.snap = work
	return nil
}

// Snapshot returns a deep copy of the committed document.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Replace persists snap and makes it the committed document.
func (s *Store) Replace(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := snap.Clone()
	if s.persister != nil {
		if err := s.persister.Save(ctx, work); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}
	s.snap = work
	return nil
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}
