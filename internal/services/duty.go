package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionDutyStarted = "duty_started"
	ActionDutyEnded   = "duty_ended"

	resourceDutyLog = "duty_log"
)

// ActiveDuty pairs an open session with its user.
type ActiveDuty struct {
	User types.User    `json:"user"`
	Duty types.DutyLog `json:"duty"`
}

// DutyStats are whole hours on duty per period.
type DutyStats struct {
	TodayHours int `json:"todayHours"`
	WeekHours  int `json:"weekHours"`
	MonthHours int `json:"monthHours"`
}

// DutyService runs the on/off duty state machine.
type DutyService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewDutyService(s *store.Store, rec *audit.Recorder) *DutyService {
	return &DutyService{store: s, audit: rec}
}

// Start opens a session for the caller.
func (s *DutyService) Start(ctx context.Context, caller *types.User) (types.DutyLog, error) {
	if err := authz.Check(caller, authz.DutyOnOff); err != nil {
		return types.DutyLog{}, err
	}

	var log types.DutyLog
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.OpenDutyLog(caller.ID); err == nil {
			return ErrAlreadyOnDuty
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		var err error
		log, err = tx.CreateDutyLog(types.DutyLog{UserID: caller.ID, StartTime: s.store.Now()})
		return err
	})
	if err != nil {
		return types.DutyLog{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionDutyStarted,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceDutyLog,
		TargetResourceID:   log.ID,
	})
	return log, nil
}

// End closes the caller's open session. The duration is the elapsed
// time in whole minutes, rounded down.
func (s *DutyService) End(ctx context.Context, caller *types.User) (types.DutyLog, error) {
	if err := authz.Check(caller, authz.DutyOnOff); err != nil {
		return types.DutyLog{}, err
	}

	var log types.DutyLog
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		open, err := tx.OpenDutyLog(caller.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotOnDuty
		}
		if err != nil {
			return err
		}
		end := s.store.Now()
		minutes := int(end.Sub(open.StartTime) / time.Minute)
		if minutes < 0 {
			minutes = 0
		}
		open.EndTime = &end
		open.Duration = &minutes
		log, err = tx.UpdateDutyLog(open)
		return err
	})
	if err != nil {
		return types.DutyLog{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionDutyEnded,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceDutyLog,
		TargetResourceID:   log.ID,
		NewValue:           fmt.Sprintf("%d minutes", *log.Duration),
	})
	return log, nil
}

// Current returns the caller's open session, or nil when off duty.
func (s *DutyService) Current(ctx context.Context, caller *types.User) (*types.DutyLog, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var current *types.DutyLog
	err := s.store.View(ctx, func(tx *store.Tx) error {
		log, err := tx.OpenDutyLog(caller.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = &log
		return nil
	})
	return current, err
}

// History returns the caller's sessions, newest first.
func (s *DutyService) History(ctx context.Context, caller *types.User) ([]types.DutyLog, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var logs []types.DutyLog
	err := s.store.View(ctx, func(tx *store.Tx) error {
		logs = tx.DutyLogsByUser(caller.ID)
		return nil
	})
	return logs, err
}

// Active lists every open session whose user still exists.
func (s *DutyService) Active(ctx context.Context, caller *types.User) ([]ActiveDuty, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	result := []ActiveDuty{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, log := range tx.OpenDutyLogs() {
			user, err := tx.User(log.UserID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			result = append(result, ActiveDuty{User: user.Public(), Duty: log})
		}
		return nil
	})
	return result, err
}

// Stats sums stored durations of the caller's sessions that started in
// the current day, the last seven days and the current month. Sessions
// without a duration do not count.
func (s *DutyService) Stats(ctx context.Context, caller *types.User) (DutyStats, error) {
	if err := requireCaller(caller); err != nil {
		return DutyStats{}, err
	}
	var logs []types.DutyLog
	err := s.store.View(ctx, func(tx *store.Tx) error {
		logs = tx.DutyLogsByUser(caller.ID)
		return nil
	})
	if err != nil {
		return DutyStats{}, err
	}

	now := s.store.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.Add(-7 * 24 * time.Hour)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	return DutyStats{
		TodayHours: dutyHoursSince(logs, todayStart),
		WeekHours:  dutyHoursSince(logs, weekStart),
		MonthHours: dutyHoursSince(logs, monthStart),
	}, nil
}

func dutyHoursSince(logs []types.DutyLog, start time.Time) int {
	minutes := 0
	for _, log := range logs {
		if log.Duration == nil || log.StartTime.Before(start) {
			continue
		}
		minutes += *log.Duration
	}
	return int(math.Round(float64(minutes) / 60))
}
