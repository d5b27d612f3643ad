package store

import (
	"slices"
	"sort"
	"strings"

	"github.com/ilng/roster/types"
)

// Tx is the view of the snapshot handed to View and Update callbacks.
// Values it returns are copies; changes are made through its Create and
// Update methods. A Tx must not be used after its callback returns.
type Tx struct {
	snap     *Snapshot
	store    *Store
	writable bool
	dirty    bool
}

func (tx *Tx) write() error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.dirty = true
	return nil
}

func find[T any](items []T, match func(T) bool) (int, bool) {
	for i, item := range items {
		if match(item) {
			return i, true
		}
	}
	return -1, false
}

func filter[T any](items []T, keep func(T) bool, clone func(T) T) []T {
	out := []T{}
	for _, item := range items {
		if keep(item) {
			out = append(out, clone(item))
		}
	}
	return out
}

func identity[T any](v T) T { return v }

func all[T any](T) bool { return true }

// --- Users ---

// User returns the user with id.
func (tx *Tx) User(id string) (types.User, error) {
	i, ok := find(tx.snap.Users, func(u types.User) bool { return u.ID == id })
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(tx.snap.Users[i]), nil
}

// UserByDiscordID returns the user with the given Discord id.
func (tx *Tx) UserByDiscordID(discordID string) (types.User, error) {
	i, ok := find(tx.snap.Users, func(u types.User) bool { return u.DiscordID == discordID })
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(tx.snap.Users[i]), nil
}

// UserByUsername matches username case-insensitively.
func (tx *Tx) UserByUsername(username string) (types.User, error) {
	i, ok := find(tx.snap.Users, func(u types.User) bool {
		return u.Username != "" && strings.EqualFold(u.Username, username)
	})
	if !ok {
		return types.User{}, ErrNotFound
	}
	return cloneUser(tx.snap.Users[i]), nil
}

// Users returns every user in insertion order.
func (tx *Tx) Users() []types.User {
	return filter(tx.snap.Users, all, cloneUser)
}

// CreateUser assigns an id and timestamps and appends u.
func (tx *Tx) CreateUser(u types.User) (types.User, error) {
	if err := tx.write(); err != nil {
		return types.User{}, err
	}
	now := tx.store.now()
	u.ID = tx.store.newID()
	u.CreatedAt = now
	u.UpdatedAt = now
	tx.snap.Users = append(tx.snap.Users, cloneUser(u))
	return u, nil
}

// UpdateUser replaces the stored user with the same id.
func (tx *Tx) UpdateUser(u types.User) (types.User, error) {
	if err := tx.write(); err != nil {
		return types.User{}, err
	}
	i, ok := find(tx.snap.Users, func(x types.User) bool { return x.ID == u.ID })
	if !ok {
		return types.User{}, ErrNotFound
	}
	u.CreatedAt = tx.snap.Users[i].CreatedAt
	u.UpdatedAt = tx.store.now()
	tx.snap.Users[i] = cloneUser(u)
	return u, nil
}

// --- Duty logs ---

// OpenDutyLog returns the user's open session, the most recent one if
// several exist.
func (tx *Tx) OpenDutyLog(userID string) (types.DutyLog, error) {
	logs := tx.snap.DutyLogs
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].UserID == userID && logs[i].Open() {
			return cloneDutyLog(logs[i]), nil
		}
	}
	return types.DutyLog{}, ErrNotFound
}

// DutyLogsByUser returns the user's sessions, newest start first.
func (tx *Tx) DutyLogsByUser(userID string) []types.DutyLog {
	out := filter(tx.snap.DutyLogs, func(d types.DutyLog) bool { return d.UserID == userID }, cloneDutyLog)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

// OpenDutyLogs returns every open session.
func (tx *Tx) OpenDutyLogs() []types.DutyLog {
	return filter(tx.snap.DutyLogs, types.DutyLog.Open, cloneDutyLog)
}

// DutyLogs returns every session in insertion order.
func (tx *Tx) DutyLogs() []types.DutyLog {
	return filter(tx.snap.DutyLogs, all, cloneDutyLog)
}

// CreateDutyLog appends a session.
func (tx *Tx) CreateDutyLog(d types.DutyLog) (types.DutyLog, error) {
	if err := tx.write(); err != nil {
		return types.DutyLog{}, err
	}
	d.ID = tx.store.newID()
	d.CreatedAt = tx.store.now()
	tx.snap.DutyLogs = append(tx.snap.DutyLogs, cloneDutyLog(d))
	return d, nil
}

// UpdateDutyLog replaces the stored session with the same id.
func (tx *Tx) UpdateDutyLog(d types.DutyLog) (types.DutyLog, error) {
	if err := tx.write(); err != nil {
		return types.DutyLog{}, err
	}
	i, ok := find(tx.snap.DutyLogs, func(x types.DutyLog) bool { return x.ID == d.ID })
	if !ok {
		return types.DutyLog{}, ErrNotFound
	}
	d.CreatedAt = tx.snap.DutyLogs[i].CreatedAt
	tx.snap.DutyLogs[i] = cloneDutyLog(d)
	return d, nil
}

// --- Disciplinary records ---

// DisciplinaryRecord returns the record with id.
func (tx *Tx) DisciplinaryRecord(id string) (types.DisciplinaryRecord, error) {
	i, ok := find(tx.snap.DisciplinaryRecords, func(r types.DisciplinaryRecord) bool { return r.ID == id })
	if !ok {
		return types.DisciplinaryRecord{}, ErrNotFound
	}
	return cloneDisciplinary(tx.snap.DisciplinaryRecords[i]), nil
}

// DisciplinaryRecordsByUser returns the records issued against userID.
func (tx *Tx) DisciplinaryRecordsByUser(userID string) []types.DisciplinaryRecord {
	return filter(tx.snap.DisciplinaryRecords,
		func(r types.DisciplinaryRecord) bool { return r.UserID == userID }, cloneDisciplinary)
}

// DisciplinaryRecords returns every record.
func (tx *Tx) DisciplinaryRecords() []types.DisciplinaryRecord {
	return filter(tx.snap.DisciplinaryRecords, all, cloneDisciplinary)
}

// CreateDisciplinaryRecord appends r with version 1.
func (tx *Tx) CreateDisciplinaryRecord(r types.DisciplinaryRecord) (types.DisciplinaryRecord, error) {
	if err := tx.write(); err != nil {
		return types.DisciplinaryRecord{}, err
	}
	now := tx.store.now()
	r.ID = tx.store.newID()
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now
	tx.snap.DisciplinaryRecords = append(tx.snap.DisciplinaryRecords, cloneDisciplinary(r))
	return r, nil
}

// UpdateDisciplinaryRecord replaces the stored record, bumping its
// version. The caller's Version is ignored: last writer wins.
func (tx *Tx) UpdateDisciplinaryRecord(r types.DisciplinaryRecord) (types.DisciplinaryRecord, error) {
	if err := tx.write(); err != nil {
		return types.DisciplinaryRecord{}, err
	}
	i, ok := find(tx.snap.DisciplinaryRecords, func(x types.DisciplinaryRecord) bool { return x.ID == r.ID })
	if !ok {
		return types.DisciplinaryRecord{}, ErrNotFound
	}
	current := tx.snap.DisciplinaryRecords[i]
	r.Version = current.Version + 1
	r.CreatedAt = current.CreatedAt
	r.UpdatedAt = tx.store.now()
	tx.snap.DisciplinaryRecords[i] = cloneDisciplinary(r)
	return r, nil
}

// --- Promotions ---

// PromotionsByUser returns the promotions of userID.
func (tx *Tx) PromotionsByUser(userID string) []types.Promotion {
	return filter(tx.snap.Promotions, func(p types.Promotion) bool { return p.UserID == userID }, identity)
}

// Promotions returns every promotion.
func (tx *Tx) Promotions() []types.Promotion {
	return slices.Clone(tx.snap.Promotions)
}

// CreatePromotion appends p with version 1.
func (tx *Tx) CreatePromotion(p types.Promotion) (types.Promotion, error) {
	if err := tx.write(); err != nil {
		return types.Promotion{}, err
	}
	p.ID = tx.store.newID()
	p.Version = 1
	p.CreatedAt = tx.store.now()
	tx.snap.Promotions = append(tx.snap.Promotions, p)
	return p, nil
}

// --- Merit ledger ---

// MeritTransactionsByUser returns the ledger rows of userID.
func (tx *Tx) MeritTransactionsByUser(userID string) []types.MeritPointTransaction {
	return filter(tx.snap.MeritPointTransactions,
		func(m types.MeritPointTransaction) bool { return m.UserID == userID }, identity)
}

// MeritTransactions returns the whole ledger.
func (tx *Tx) MeritTransactions() []types.MeritPointTransaction {
	return slices.Clone(tx.snap.MeritPointTransactions)
}

// MeritBalance sums the ledger rows of userID.
func (tx *Tx) MeritBalance(userID string) int {
	total := 0
	for _, m := range tx.snap.MeritPointTransactions {
		if m.UserID == userID {
			total += m.Amount
		}
	}
	return total
}

// CreateMeritTransaction appends a ledger row.
func (tx *Tx) CreateMeritTransaction(m types.MeritPointTransaction) (types.MeritPointTransaction, error) {
	if err := tx.write(); err != nil {
		return types.MeritPointTransaction{}, err
	}
	m.ID = tx.store.newID()
	m.CreatedAt = tx.store.now()
	tx.snap.MeritPointTransactions = append(tx.snap.MeritPointTransactions, m)
	return m, nil
}

// --- Missions ---

// Mission returns the mission with id.
func (tx *Tx) Mission(id string) (types.Mission, error) {
	i, ok := find(tx.snap.Missions, func(m types.Mission) bool { return m.ID == id })
	if !ok {
		return types.Mission{}, ErrNotFound
	}
	return cloneMission(tx.snap.Missions[i]), nil
}

// Missions returns every mission.
func (tx *Tx) Missions() []types.Mission {
	return filter(tx.snap.Missions, all, cloneMission)
}

// CreateMission appends m.
func (tx *Tx) CreateMission(m types.Mission) (types.Mission, error) {
	if err := tx.write(); err != nil {
		return types.Mission{}, err
	}
	now := tx.store.now()
	m.ID = tx.store.newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	tx.snap.Missions = append(tx.snap.Missions, cloneMission(m))
	return m, nil
}

// --- Units ---

// Units returns every unit.
func (tx *Tx) Units() []types.Unit {
	return slices.Clone(tx.snap.Units)
}

// CreateUnit appends u.
func (tx *Tx) CreateUnit(u types.Unit) (types.Unit, error) {
	if err := tx.write(); err != nil {
		return types.Unit{}, err
	}
	u.ID = tx.store.newID()
	u.CreatedAt = tx.store.now()
	tx.snap.Units = append(tx.snap.Units, u)
	return u, nil
}

// --- Audit logs ---

// AuditLogs returns every entry in append order.
func (tx *Tx) AuditLogs() []types.AuditLog {
	return filter(tx.snap.AuditLogs, all, cloneAuditLog)
}

// CreateAuditLog appends an entry. Entries are never updated or deleted.
// A zero Timestamp is filled from the store clock.
func (tx *Tx) CreateAuditLog(a types.AuditLog) (types.AuditLog, error) {
	if err := tx.write(); err != nil {
		return types.AuditLog{}, err
	}
	a.ID = tx.store.newID()
	if a.Timestamp.IsZero() {
		a.Timestamp = tx.store.now()
	}
	tx.snap.AuditLogs = append(tx.snap.AuditLogs, cloneAuditLog(a))
	return a, nil
}

// --- Awards ---

// Award returns the catalog entry with id.
func (tx *Tx) Award(id string) (types.Award, error) {
	i, ok := find(tx.snap.Awards, func(a types.Award) bool { return a.ID == id })
	if !ok {
		return types.Award{}, ErrNotFound
	}
	return tx.snap.Awards[i], nil
}

// Awards returns the catalog ordered by precedence.
func (tx *Tx) Awards() []types.Award {
	out := slices.Clone(tx.snap.Awards)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Precedence < out[j].Precedence })
	return out
}

// CreateAward appends a catalog entry.
func (tx *Tx) CreateAward(a types.Award) (types.Award, error) {
	if err := tx.write(); err != nil {
		return types.Award{}, err
	}
	a.ID = tx.store.newID()
	a.CreatedAt = tx.store.now()
	tx.snap.Awards = append(tx.snap.Awards, a)
	return a, nil
}

// --- User awards ---

// UserAward returns the granted award with id.
func (tx *Tx) UserAward(id string) (types.UserAward, error) {
	i, ok := find(tx.snap.UserAwards, func(a types.UserAward) bool { return a.ID == id })
	if !ok {
		return types.UserAward{}, ErrNotFound
	}
	return tx.snap.UserAwards[i], nil
}

// UserAwardsByUser returns the awards granted to userID.
func (tx *Tx) UserAwardsByUser(userID string) []types.UserAward {
	return filter(tx.snap.UserAwards, func(a types.UserAward) bool { return a.UserID == userID }, identity)
}

// UserAwards returns every granted award.
func (tx *Tx) UserAwards() []types.UserAward {
	return slices.Clone(tx.snap.UserAwards)
}

// CreateUserAward appends a granted award.
func (tx *Tx) CreateUserAward(a types.UserAward) (types.UserAward, error) {
	if err := tx.write(); err != nil {
		return types.UserAward{}, err
	}
	a.ID = tx.store.newID()
	a.CreatedAt = tx.store.now()
	tx.snap.UserAwards = append(tx.snap.UserAwards, a)
	return a, nil
}

// DeleteUserAward removes the granted award with id.
func (tx *Tx) DeleteUserAward(id string) error {
	if err := tx.write(); err != nil {
		return err
	}
	i, ok := find(tx.snap.UserAwards, func(a types.UserAward) bool { return a.ID == id })
	if !ok {
		return ErrNotFound
	}
	tx.snap.UserAwards = slices.Delete(tx.snap.UserAwards, i, i+1)
	return nil
}
