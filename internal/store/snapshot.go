package store

import (
	"maps"
	"slices"
	"time"

	"github.com/ilng/roster/types"
)

// Snapshot is the whole persisted document. Field order and JSON names
// are the on-disk layout and must not change.
type Snapshot struct {
	Users                  []types.User                  `json:"users"`
	DutyLogs               []types.DutyLog               `json:"dutyLogs"`
	DisciplinaryRecords    []types.DisciplinaryRecord    `json:"disciplinaryRecords"`
	Promotions             []types.Promotion             `json:"promotions"`
	MeritPointTransactions []types.MeritPointTransaction `json:"meritPointTransactions"`
	Missions               []types.Mission               `json:"missions"`
	Units                  []types.Unit                  `json:"units"`
	AuditLogs              []types.AuditLog              `json:"auditLogs"`
	Awards                 []types.Award                 `json:"awards"`
	UserAwards             []types.UserAward             `json:"userAwards"`
}

// NewSnapshot returns a snapshot with every collection empty.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.normalize()
	return s
}

// normalize replaces nil collections with empty ones so the document
// always serialises every collection as an array.
func (s *Snapshot) normalize() {
	if s.Users == nil {
		s.Users = []types.User{}
	}
	if s.DutyLogs == nil {
		s.DutyLogs = []types.DutyLog{}
	}
	if s.DisciplinaryRecords == nil {
		s.DisciplinaryRecords = []types.DisciplinaryRecord{}
	}
	if s.Promotions == nil {
		s.Promotions = []types.Promotion{}
	}
	if s.MeritPointTransactions == nil {
		s.MeritPointTransactions = []types.MeritPointTransaction{}
	}
	if s.Missions == nil {
		s.Missions = []types.Mission{}
	}
	if s.Units == nil {
		s.Units = []types.Unit{}
	}
	if s.AuditLogs == nil {
		s.AuditLogs = []types.AuditLog{}
	}
	if s.Awards == nil {
		s.Awards = []types.Award{}
	}
	if s.UserAwards == nil {
		s.UserAwards = []types.UserAward{}
	}
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Users:                  cloneAll(s.Users, cloneUser),
		DutyLogs:               cloneAll(s.DutyLogs, cloneDutyLog),
		DisciplinaryRecords:    cloneAll(s.DisciplinaryRecords, cloneDisciplinary),
		Promotions:             slices.Clone(s.Promotions),
		MeritPointTransactions: slices.Clone(s.MeritPointTransactions),
		Missions:               cloneAll(s.Missions, cloneMission),
		Units:                  slices.Clone(s.Units),
		AuditLogs:              cloneAll(s.AuditLogs, cloneAuditLog),
		Awards:                 slices.Clone(s.Awards),
		UserAwards:             slices.Clone(s.UserAwards),
	}
	c.normalize()
	return c
}

func cloneAll[T any](in []T, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func cloneUser(u types.User) types.User {
	u.LastActivity = cloneTime(u.LastActivity)
	return u
}

func cloneDutyLog(d types.DutyLog) types.DutyLog {
	d.EndTime = cloneTime(d.EndTime)
	d.Duration = cloneInt(d.Duration)
	return d
}

func cloneDisciplinary(r types.DisciplinaryRecord) types.DisciplinaryRecord {
	r.Evidence = slices.Clone(r.Evidence)
	return r
}

func cloneMission(m types.Mission) types.Mission {
	m.Participants = slices.Clone(m.Participants)
	return m
}

func cloneAuditLog(a types.AuditLog) types.AuditLog {
	a.Metadata = maps.Clone(a.Metadata)
	return a
}
