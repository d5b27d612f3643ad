package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

type fakeUploader struct {
	snaps []*store.Snapshot
	err   error
}

func (f *fakeUploader) UploadSnapshot(_ context.Context, snap *store.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.snaps = append(f.snaps, snap)
	return "snapshots/latest.json", nil
}

func TestAdminStats(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	adm := e.admin(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	_, err := e.svc.Duty.Start(ctx, &u)
	require.NoError(t, err)
	_, err = e.svc.Duty.End(ctx, &u)
	require.NoError(t, err)
	_, err = e.svc.Duty.Start(ctx, &u)
	require.NoError(t, err)

	stats, err := e.svc.Admin.Stats(ctx, &adm)
	require.NoError(t, err)
	assert.Equal(t, AdminStats{TotalUsers: 2, TotalDutyLogs: 2, ActiveDutyLogs: 1}, stats)

	_, err = e.svc.Admin.Stats(ctx, &u)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestExportStripsHashes(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	adm := e.admin(t)
	e.addUser(t, "jdoe", authz.RoleSoldier, "PV1", withPassword("secret"))

	snap, err := e.svc.Admin.Export(context.Background(), &adm)
	require.NoError(t, err)
	require.Len(t, snap.Users, 2)
	for _, u := range snap.Users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestImportKeepsExistingHashes(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	adm := e.admin(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1", withPassword("secret"))
	ctx := context.Background()

	snap, err := e.svc.Admin.Export(ctx, &adm)
	require.NoError(t, err)
	snap.Users = append(snap.Users, types.User{
		ID:           "imported",
		Username:     "newbie",
		FirstName:    "New",
		LastName:     "Bie",
		Rank:         "PV1",
		Role:         authz.RoleSoldier,
		Status:       types.UserStatusActive,
		PasswordHash: "plain:given",
	})

	require.NoError(t, e.svc.Admin.Import(ctx, &adm, snap))
	assert.Equal(t, "plain:secret", e.user(t, u.ID).PasswordHash)
	assert.Equal(t, "plain:given", e.user(t, "imported").PasswordHash)
	assert.Equal(t, []string{ActionDataImported}, e.auditActions(t))

	_, err = e.svc.Auth.Login(ctx, "jdoe", "secret")
	assert.NoError(t, err)
}

func TestImportValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	adm := e.admin(t)
	ctx := context.Background()
	good := types.User{ID: "a", Username: "a", FirstName: "A", LastName: "A", Rank: "PV1", Role: authz.RoleSoldier, Status: types.UserStatusActive}

	tests := []struct {
		name  string
		users []types.User
		want  error
	}{
		{"no users", nil, ErrValidation},
		{"missing id", []types.User{{Username: "x"}}, ErrValidation},
		{"duplicate id", []types.User{good, good}, ErrValidation},
		{"bad rank", []types.User{func() types.User { u := good; u.Rank = "ZZZ"; return u }()}, ErrInvalidRank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := store.NewSnapshot()
			snap.Users = tt.users
			assert.ErrorIs(t, e.svc.Admin.Import(ctx, &adm, snap), tt.want)
		})
	}
	assert.ErrorIs(t, e.svc.Admin.Import(ctx, &adm, nil), ErrValidation)

	// The store is untouched by rejected imports.
	assert.Equal(t, adm.ID, e.user(t, adm.ID).ID)
}

func TestBackup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		e := newEnv(t)
		adm := e.admin(t)
		_, err := e.svc.Admin.Backup(ctx, &adm)
		assert.ErrorIs(t, err, ErrBackupsDisabled)
	})

	t.Run("uploads with hashes", func(t *testing.T) {
		e := newEnv(t)
		uploader := &fakeUploader{}
		e.svc = New(e.store, audit.NewRecorder(e.store, nil), plainHasher{}, uploader)
		adm := e.addUser(t, "admin", authz.RoleAdmin, "GEN", withPassword("pw"))

		key, err := e.svc.Admin.Backup(ctx, &adm)
		require.NoError(t, err)
		assert.Equal(t, "snapshots/latest.json", key)
		require.Len(t, uploader.snaps, 1)
		assert.Equal(t, "plain:pw", uploader.snaps[0].Users[0].PasswordHash)

		_, err = e.svc.Admin.SystemBackup(ctx)
		require.NoError(t, err)
		logs := e.auditLogs(t)
		require.Len(t, logs, 2)
		assert.Equal(t, adm.ID, logs[0].PerformedBy)
		assert.Equal(t, audit.SystemActor, logs[1].PerformedBy)
	})

	t.Run("upload failure", func(t *testing.T) {
		e := newEnv(t)
		e.svc = New(e.store, audit.NewRecorder(e.store, nil), plainHasher{}, &fakeUploader{err: errors.New("bucket gone")})
		adm := e.admin(t)
		_, err := e.svc.Admin.Backup(ctx, &adm)
		assert.ErrorContains(t, err, "bucket gone")
		assert.Empty(t, e.auditLogs(t))
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	e.addUser(t, "admin", authz.RoleAdmin, "GEN", withPassword("pw"))
	backup := e.store.Snapshot()

	e.addUser(t, "later", authz.RoleSoldier, "PV1")

	require.NoError(t, e.svc.Admin.Restore(ctx, "snapshots/x.json", backup))

	snap := e.store.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "plain:pw", snap.Users[0].PasswordHash)

	logs := e.auditLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionBackupRestored, logs[0].Action)
	assert.Equal(t, audit.SystemActor, logs[0].PerformedBy)
	assert.Equal(t, "snapshots/x.json", logs[0].TargetResourceID)

	_, err := e.svc.Auth.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	bad := store.NewSnapshot()
	bad.Users = []types.User{{ID: "u1", Username: "x", Rank: "NOPE", Role: authz.RoleSoldier}}
	assert.ErrorIs(t, e.svc.Admin.Restore(ctx, "k", bad), ErrValidation)
	assert.ErrorIs(t, e.svc.Admin.Restore(ctx, "k", nil), ErrValidation)
	assert.ErrorIs(t, e.svc.Admin.Restore(ctx, "k", store.NewSnapshot()), ErrValidation)

	good := types.User{ID: "u1", Username: "a", FirstName: "A", LastName: "A", Rank: "PV1", Role: authz.RoleSoldier, Status: types.UserStatusActive}
	dup := store.NewSnapshot()
	dup.Users = []types.User{good, good}
	assert.ErrorIs(t, e.svc.Admin.Restore(ctx, "k", dup), ErrValidation)
	noID := store.NewSnapshot()
	noID.Users = []types.User{{Username: "x"}}
	assert.ErrorIs(t, e.svc.Admin.Restore(ctx, "k", noID), ErrValidation)
	assert.Len(t, e.store.Snapshot().Users, 1)
}
