package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

func TestMeritScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	gen := e.general(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	for _, amount := range []int{10, 10, -5} {
		_, err := e.svc.Merit.Award(ctx, &gen, AwardMeritInput{UserID: u.ID, Amount: amount, Reason: "drill"})
		require.NoError(t, err)
	}

	var amounts []int
	require.NoError(t, e.store.View(ctx, func(tx *store.Tx) error {
		for _, txn := range tx.MeritTransactionsByUser(u.ID) {
			amounts = append(amounts, txn.Amount)
		}
		return nil
	}))
	assert.Equal(t, []int{10, 10, -5}, amounts)
	assert.Equal(t, 15, e.user(t, u.ID).MeritPoints)

	balance, err := e.svc.Merit.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)

	logs := e.auditLogs(t)
	require.Len(t, logs, 3)
	assert.Equal(t, ActionMeritAwarded, logs[2].Action)
	assert.Equal(t, "20", logs[2].PreviousValue)
	assert.Equal(t, "15", logs[2].NewValue)
}

func TestMeritAwardValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	gen := e.general(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	tests := []struct {
		name string
		in   AwardMeritInput
		want error
	}{
		{"zero amount", AwardMeritInput{UserID: u.ID, Amount: 0, Reason: "x"}, ErrValidation},
		{"missing reason", AwardMeritInput{UserID: u.ID, Amount: 1, Reason: " "}, ErrValidation},
		{"missing user", AwardMeritInput{Amount: 1, Reason: "x"}, ErrValidation},
		{"unknown user", AwardMeritInput{UserID: "missing", Amount: 1, Reason: "x"}, ErrNotFound},
		{"unknown mission", AwardMeritInput{UserID: u.ID, Amount: 1, Reason: "x", RelatedMissionID: "m"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Merit.Award(ctx, &gen, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := e.svc.Merit.Award(ctx, &u, AwardMeritInput{UserID: u.ID, Amount: 1, Reason: "x"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.Zero(t, e.user(t, u.ID).MeritPoints)
}

func TestConcurrentMeritAwardsMatchLedger(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	gen := e.general(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	const awards = 40
	var wg sync.WaitGroup
	for i := 0; i < awards; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := 3
			if i%4 == 0 {
				amount = -2
			}
			_, err := e.svc.Merit.Award(ctx, &gen, AwardMeritInput{UserID: u.ID, Amount: amount, Reason: "concurrent"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	balance, err := e.svc.Merit.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 30*3+10*-2, balance)
	assert.Equal(t, balance, e.user(t, u.ID).MeritPoints)
}

func TestMeritListScope(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	gen := e.general(t)
	a := e.addUser(t, "alpha", authz.RoleSoldier, "PV1")
	b := e.addUser(t, "bravo", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	for _, id := range []string{a.ID, b.ID} {
		_, err := e.svc.Merit.Award(ctx, &gen, AwardMeritInput{UserID: id, Amount: 5, Reason: "x"})
		require.NoError(t, err)
	}

	all, err := e.svc.Merit.List(ctx, &gen)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := e.svc.Merit.List(ctx, &a)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, a.ID, own[0].UserID)
	assert.Equal(t, "Alpha Test", own[0].UserName)
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	low := e.addUser(t, "low", authz.RoleSoldier, "PV1", func(u *types.User) { u.MeritPoints = -3 })
	high := e.addUser(t, "high", authz.RoleSoldier, "PV1", func(u *types.User) { u.MeritPoints = 40 })
	e.addUser(t, "retired", authz.RoleSoldier, "PV1", func(u *types.User) {
		u.MeritPoints = 99
		u.Status = types.UserStatusInactive
	})

	board, err := e.svc.Merit.Leaderboard(context.Background(), &low)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, high.ID, board[0].UserID)
	assert.Equal(t, 40, board[0].Points)
	assert.Equal(t, low.ID, board[1].UserID)
}

func TestReconcile(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	gen := e.general(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	_, err := e.svc.Merit.Award(ctx, &gen, AwardMeritInput{UserID: u.ID, Amount: 7, Reason: "x"})
	require.NoError(t, err)
	require.NoError(t, e.store.Update(ctx, func(tx *store.Tx) error {
		drifted, err := tx.User(u.ID)
		if err != nil {
			return err
		}
		drifted.MeritPoints = 100
		_, err = tx.UpdateUser(drifted)
		return err
	}))

	corrections, err := e.svc.Merit.Reconcile(ctx, &gen)
	require.NoError(t, err)
	assert.Equal(t, []BalanceCorrection{{UserID: u.ID, Previous: 100, Current: 7}}, corrections)
	assert.Equal(t, 7, e.user(t, u.ID).MeritPoints)
	assert.Contains(t, e.auditActions(t), ActionMeritReconciled)

	corrections, err = e.svc.Merit.Reconcile(ctx, &gen)
	require.NoError(t, err)
	assert.Empty(t, corrections)
}
