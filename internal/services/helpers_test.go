package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// plainHasher keeps tests fast; bcrypt is covered in hasher_test.go.
type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "plain:" + secret, nil }

func (plainHasher) Compare(hash, secret string) bool { return hash == "plain:"+secret }

type env struct {
	store *store.Store
	clock *testClock
	svc   *Services
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC)}
	s := store.NewMemory(store.WithClock(clock.Now))
	rec := audit.NewRecorder(s, nil)
	return &env{store: s, clock: clock, svc: New(s, rec, plainHasher{}, nil)}
}

// addUser inserts a user straight into the store.
func (e *env) addUser(t *testing.T, username, role, rank string, mutate ...func(*types.User)) types.User {
	t.Helper()
	u := types.User{
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Test",
		Rank:      rank,
		Role:      role,
		Status:    types.UserStatusActive,
		JoinDate:  e.clock.Now(),
	}
	for _, fn := range mutate {
		fn(&u)
	}
	require.NoError(t, e.store.Update(context.Background(), func(tx *store.Tx) error {
		var err error
		u, err = tx.CreateUser(u)
		return err
	}))
	return u
}

func (e *env) admin(t *testing.T) types.User {
	return e.addUser(t, "admin", authz.RoleAdmin, "GEN")
}

func (e *env) general(t *testing.T) types.User {
	return e.addUser(t, "general", authz.RoleGeneral, "COL")
}

func (e *env) auditLogs(t *testing.T) []types.AuditLog {
	t.Helper()
	var logs []types.AuditLog
	require.NoError(t, e.store.View(context.Background(), func(tx *store.Tx) error {
		logs = tx.AuditLogs()
		return nil
	}))
	return logs
}

func (e *env) auditActions(t *testing.T) []string {
	t.Helper()
	var actions []string
	for _, l := range e.auditLogs(t) {
		actions = append(actions, l.Action)
	}
	return actions
}

func (e *env) user(t *testing.T, id string) types.User {
	t.Helper()
	var u types.User
	require.NoError(t, e.store.View(context.Background(), func(tx *store.Tx) error {
		var err error
		u, err = tx.User(id)
		return err
	}))
	return u
}

func ptr[T any](v T) *T { return &v }
