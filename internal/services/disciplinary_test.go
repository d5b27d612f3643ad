package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

func TestCreateDisciplinary(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	mp := e.addUser(t, "police", authz.RoleMP, "SGT")
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV2")
	ctx := context.Background()

	record, err := e.svc.Disciplinary.Create(ctx, &mp, CreateDisciplinaryInput{
		UserID:   u.ID,
		Reason:   "  Absent from formation  ",
		Category: types.CategoryMinor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Absent from formation", record.Reason)
	assert.Equal(t, types.DisciplinaryActive, record.Status)
	assert.Equal(t, mp.ID, record.IssuedBy)
	assert.Equal(t, 1, record.Version)
	assert.Equal(t, []string{ActionDisciplinaryCreated}, e.auditActions(t))

	own, err := e.svc.Disciplinary.ListOwn(ctx, &u)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, record.ID, own[0].ID)
}

func TestCreateDisciplinaryValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	mp := e.addUser(t, "police", authz.RoleMP, "SGT")
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV2")
	ctx := context.Background()

	tests := []struct {
		name   string
		caller types.User
		in     CreateDisciplinaryInput
		want   error
	}{
		{"short reason", mp, CreateDisciplinaryInput{UserID: u.ID, Reason: "too short", Category: types.CategoryMinor}, ErrValidation},
		{"bad category", mp, CreateDisciplinaryInput{UserID: u.ID, Reason: "a long enough reason", Category: "petty"}, ErrValidation},
		{"missing user", mp, CreateDisciplinaryInput{Reason: "a long enough reason", Category: types.CategoryMinor}, ErrValidation},
		{"unknown user", mp, CreateDisciplinaryInput{UserID: "missing", Reason: "a long enough reason", Category: types.CategoryMinor}, ErrNotFound},
		{"soldier forbidden", u, CreateDisciplinaryInput{UserID: u.ID, Reason: "a long enough reason", Category: types.CategoryMinor}, authz.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Disciplinary.Create(ctx, &tt.caller, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, e.auditLogs(t))
}

func TestReasonLengthCountsCharacters(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	mp := e.addUser(t, "police", authz.RoleMP, "SGT")
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV2")

	_, err := e.svc.Disciplinary.Create(context.Background(), &mp, CreateDisciplinaryInput{
		UserID:   u.ID,
		Reason:   "ééééééééé",
		Category: types.CategoryMinor,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateDisciplinaryBumpsVersion(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	mp := e.addUser(t, "police", authz.RoleMP, "SGT")
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV2")
	ctx := context.Background()

	record, err := e.svc.Disciplinary.Create(ctx, &mp, CreateDisciplinaryInput{
		UserID:   u.ID,
		Reason:   "Insubordination on patrol",
		Category: types.CategoryModerate,
	})
	require.NoError(t, err)

	updated, err := e.svc.Disciplinary.Update(ctx, &mp, record.ID, DisciplinaryPatch{Status: ptr(types.DisciplinaryAppealed)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, types.DisciplinaryAppealed, updated.Status)

	updated, err = e.svc.Disciplinary.Update(ctx, &mp, record.ID, DisciplinaryPatch{Notes: ptr(" reviewed ")})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)
	assert.Equal(t, "reviewed", updated.Notes)
	assert.Equal(t, types.DisciplinaryAppealed, updated.Status)

	logs := e.auditLogs(t)
	require.Len(t, logs, 3)
	assert.Equal(t, types.DisciplinaryActive, logs[1].PreviousValue)
	assert.Equal(t, types.DisciplinaryAppealed, logs[1].NewValue)

	_, err = e.svc.Disciplinary.Update(ctx, &mp, record.ID, DisciplinaryPatch{Status: ptr("pardoned")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.svc.Disciplinary.Update(ctx, &mp, "missing", DisciplinaryPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDisciplinaryNames(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	mp := e.addUser(t, "police", authz.RoleMP, "SGT")
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV2")
	ctx := context.Background()

	_, err := e.svc.Disciplinary.Create(ctx, &mp, CreateDisciplinaryInput{
		UserID:   u.ID,
		Reason:   "Late to formation again",
		Category: types.CategoryMinor,
	})
	require.NoError(t, err)
	require.NoError(t, e.store.Update(ctx, func(tx *store.Tx) error {
		_, err := tx.CreateDisciplinaryRecord(types.DisciplinaryRecord{
			UserID:   "departed",
			IssuedBy: mp.ID,
			Reason:   "Imported from an old roster",
			Category: types.CategoryMinor,
			Status:   types.DisciplinaryClosed,
		})
		return err
	}))

	views, err := e.svc.Disciplinary.List(ctx, &mp)
	require.NoError(t, err)
	require.Len(t, views, 2)
	names := map[string]string{}
	for _, v := range views {
		names[v.UserID] = v.UserName
	}
	assert.Equal(t, "Jdoe Test", names[u.ID])
	assert.Equal(t, "Unknown", names["departed"])

	_, err = e.svc.Disciplinary.List(ctx, &u)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}
