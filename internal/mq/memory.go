package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend delivers messages in-process. Published messages are
// also kept so tests can inspect them.
type MemoryBackend struct {
	mu        sync.Mutex
	published map[string][]Message
	subs      map[string][]chan Message
	closed    bool
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		published: make(map[string][]Message),
		subs:      make(map[string][]chan Message),
	}
}

func (m *MemoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("channel is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", errors.New("backend closed")
	}

	id := attrs["id"]
	if id == "" {
		id = uuid.NewString()
	}
	msg := Message{ID: id, Data: append([]byte(nil), data...), Attributes: attrs}
	m.published[channel] = append(m.published[channel], msg)
	for _, ch := range m.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return id, nil
}

func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	ch := make(chan Message, 64)
	m.mu.Lock()
	m.subs[channel] = append(m.subs[channel], ch)
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			_ = handler(ctx, msg)
		}
	}
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Published returns the messages sent to channel so far.
func (m *MemoryBackend) Published(channel string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.published[channel]...)
}
