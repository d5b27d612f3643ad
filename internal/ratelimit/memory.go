package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	failures int
	resetAt  time.Time
}

// Memory is a process-local Policy. Counters are lost on restart and
// not shared between replicas.
type Memory struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

func NewMemory(limit int, period time.Duration) *Memory {
	return &Memory{limit: limit, period: period, now: time.Now, windows: make(map[string]window)}
}

// WithClock replaces the clock used to open and expire windows.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.current(key, now)
	if !ok {
		return Decision{Allowed: true, Remaining: m.limit}, nil
	}
	if w.failures >= m.limit {
		return Decision{RetryAfter: w.resetAt.Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: m.limit - w.failures}, nil
}

func (m *Memory) Failure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.current(key, now)
	if !ok {
		w = window{resetAt: now.Add(m.period)}
	}
	w.failures++
	m.windows[key] = w
	m.sweep(now)
	return nil
}

// current returns the live window of key, dropping an expired one.
func (m *Memory) current(key string, now time.Time) (window, bool) {
	w, ok := m.windows[key]
	if !ok {
		return window{}, false
	}
	if !now.Before(w.resetAt) {
		delete(m.windows, key)
		return window{}, false
	}
	return w, true
}

func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
