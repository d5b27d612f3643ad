package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/services"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "plain:" + secret, nil }

func (plainHasher) Compare(hash, secret string) bool { return hash == "plain:"+secret }

func TestDefaultDocument(t *testing.T) {
	doc, err := Default()
	require.NoError(t, err)
	assert.Len(t, doc.Users, 9)
	assert.Len(t, doc.Units, 2)
	assert.NotEmpty(t, doc.Awards)
	for _, u := range doc.Users {
		assert.NoError(t, services.ValidateUser(types.User{
			Username: u.Username, FirstName: u.FirstName, LastName: u.LastName,
			Rank: u.Rank, Role: u.Role, Status: types.UserStatusActive,
		}), u.Username)
	}
}

func TestApplyDefault(t *testing.T) {
	s := store.NewMemory()
	rec := audit.NewRecorder(s, nil)
	doc, err := Default()
	require.NoError(t, err)
	ctx := context.Background()

	result, err := Apply(ctx, s, rec, doc, Options{Hasher: plainHasher{}, AdminPassword: "changeme"})
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 9, Units: 2, Awards: len(doc.Awards)}, result)

	snap := s.Snapshot()
	var admin, general types.User
	for _, u := range snap.Users {
		switch u.Role {
		case authz.RoleAdmin:
			admin = u
		case authz.RoleGeneral:
			general = u
		}
	}
	assert.Equal(t, "plain:changeme", admin.PasswordHash)
	assert.Empty(t, general.PasswordHash)
	assert.WithinDuration(t, s.Now().Add(-365*24*time.Hour), general.JoinDate, time.Minute)
	assert.Equal(t, general.ID, snap.Units[0].CommanderID)
	require.Len(t, snap.AuditLogs, 1)
	assert.Equal(t, ActionSeeded, snap.AuditLogs[0].Action)
	assert.Equal(t, audit.SystemActor, snap.AuditLogs[0].PerformedBy)

	_, err = Apply(ctx, s, rec, doc, Options{Hasher: plainHasher{}})
	assert.ErrorIs(t, err, ErrAlreadySeeded)
	assert.Len(t, s.Snapshot().Users, 9)
}

func TestApplyRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	base := User{Username: "a", FirstName: "A", LastName: "A", Rank: "PV1", Role: authz.RoleSoldier}

	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"bad rank", Document{Users: []User{func() User { u := base; u.Rank = "XX"; return u }()}}, "invalid rank"},
		{"duplicate username", Document{Users: []User{base, func() User { u := base; u.Username = "A"; return u }()}}, "duplicate username"},
		{"unknown commander", Document{Users: []User{base}, Units: []Unit{{Name: "U", Abbreviation: "U", Commander: "nobody"}}}, "unknown commander"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			_, err := Apply(ctx, s, nil, tt.doc, Options{Hasher: plainHasher{}})
			assert.ErrorContains(t, err, tt.want)
			assert.Empty(t, s.Snapshot().Users)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - username: solo
    firstName: Han
    lastName: Solo
    rank: CPT
    role: Colonel
    password: falcon
`), 0o600))

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Users, 1)
	assert.Equal(t, "falcon", doc.Users[0].Password)

	doc, err = Load("")
	require.NoError(t, err)
	assert.Len(t, doc.Users, 9)

	_, err = Parse(strings.NewReader("users:\n  - nickname: x\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
