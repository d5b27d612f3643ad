package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

func TestDutyScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	started, err := e.svc.Duty.Start(ctx, &u)
	require.NoError(t, err)
	assert.True(t, started.Open())

	_, err = e.svc.Duty.Start(ctx, &u)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrAlreadyOnDuty)

	e.clock.Advance(95*time.Minute + 59*time.Second)
	ended, err := e.svc.Duty.End(ctx, &u)
	require.NoError(t, err)
	require.NotNil(t, ended.EndTime)
	require.NotNil(t, ended.Duration)
	assert.Equal(t, 95, *ended.Duration)
	assert.Equal(t, started.ID, ended.ID)

	_, err = e.svc.Duty.End(ctx, &u)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrNotOnDuty)

	logs := e.auditLogs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, ActionDutyStarted, logs[0].Action)
	assert.Equal(t, ActionDutyEnded, logs[1].Action)
	assert.Equal(t, "95 minutes", logs[1].NewValue)
}

func TestDutyRequiresPermission(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	admin := e.admin(t)

	_, err := e.svc.Duty.Start(context.Background(), &admin)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = e.svc.Duty.Start(context.Background(), nil)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}

func TestConcurrentDutyStartsOpenOneLog(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")

	const callers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.svc.Duty.Start(context.Background(), &u); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrAlreadyOnDuty)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.NoError(t, e.store.View(context.Background(), func(tx *store.Tx) error {
		assert.Len(t, tx.OpenDutyLogs(), 1)
		return nil
	}))
}

func TestDutyCurrentAndHistory(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	current, err := e.svc.Duty.Current(ctx, &u)
	require.NoError(t, err)
	assert.Nil(t, current)

	first, err := e.svc.Duty.Start(ctx, &u)
	require.NoError(t, err)
	e.clock.Advance(time.Hour)
	_, err = e.svc.Duty.End(ctx, &u)
	require.NoError(t, err)
	e.clock.Advance(time.Hour)
	second, err := e.svc.Duty.Start(ctx, &u)
	require.NoError(t, err)

	current, err = e.svc.Duty.Current(ctx, &u)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)

	history, err := e.svc.Duty.History(ctx, &u)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestDutyActiveSkipsUnknownUsers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	_, err := e.svc.Duty.Start(ctx, &u)
	require.NoError(t, err)
	require.NoError(t, e.store.Update(ctx, func(tx *store.Tx) error {
		_, err := tx.CreateDutyLog(types.DutyLog{UserID: "deleted", StartTime: e.clock.Now()})
		return err
	}))

	active, err := e.svc.Duty.Active(ctx, &u)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, u.ID, active[0].User.ID)
	assert.Empty(t, active[0].User.PasswordHash)
}

func TestDutyStats(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.addUser(t, "jdoe", authz.RoleSoldier, "PV1")
	now := e.clock.Now()
	ctx := context.Background()

	closed := func(start time.Time, minutes int) types.DutyLog {
		end := start.Add(time.Duration(minutes) * time.Minute)
		return types.DutyLog{UserID: u.ID, StartTime: start, EndTime: &end, Duration: &minutes}
	}
	require.NoError(t, e.store.Update(ctx, func(tx *store.Tx) error {
		// today, this week, this month only, outside every window, and a
		// closed log without a stored duration.
		logs := []types.DutyLog{
			closed(now.Add(-2*time.Hour), 90),
			closed(now.Add(-3*24*time.Hour), 120),
			closed(now.Add(-10*24*time.Hour), 600),
			closed(now.Add(-40*24*time.Hour), 6000),
			{UserID: u.ID, StartTime: now.Add(-time.Hour), EndTime: ptr(now)},
		}
		for _, l := range logs {
			if _, err := tx.CreateDutyLog(l); err != nil {
				return err
			}
		}
		return nil
	}))

	stats, err := e.svc.Duty.Stats(ctx, &u)
	require.NoError(t, err)
	assert.Equal(t, DutyStats{TodayHours: 2, WeekHours: 4, MonthHours: 14}, stats)
}
