package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionDataImported   = "data_imported"
	ActionBackupUploaded = "backup_uploaded"
	ActionBackupRestored = "backup_restored"

	resourceSnapshot = "snapshot"
)

// ErrBackupsDisabled is returned by Backup when no object storage is
// configured.
var ErrBackupsDisabled = errors.New("backups are not configured")

// BackupUploader stores a snapshot somewhere durable and returns its key.
type BackupUploader interface {
	UploadSnapshot(ctx context.Context, snap *store.Snapshot) (string, error)
}

// AdminStats are collection counters for administrators.
type AdminStats struct {
	TotalUsers        int `json:"totalUsers"`
	TotalDutyLogs     int `json:"totalDutyLogs"`
	ActiveDutyLogs    int `json:"activeDutyLogs"`
	TotalDisciplinary int `json:"totalDisciplinary"`
	TotalPromotions   int `json:"totalPromotions"`
}

// AdminService exports, imports and backs up the whole document.
type AdminService struct {
	store   *store.Store
	audit   *audit.Recorder
	backups BackupUploader
}

func NewAdminService(s *store.Store, rec *audit.Recorder, backups BackupUploader) *AdminService {
	return &AdminService{store: s, audit: rec, backups: backups}
}

func (s *AdminService) Stats(ctx context.Context, caller *types.User) (AdminStats, error) {
	if err := authz.Check(caller, authz.ManageUsers); err != nil {
		return AdminStats{}, err
	}
	var stats AdminStats
	err := s.store.View(ctx, func(tx *store.Tx) error {
		stats = AdminStats{
			TotalUsers:        len(tx.Users()),
			TotalDutyLogs:     len(tx.DutyLogs()),
			ActiveDutyLogs:    len(tx.OpenDutyLogs()),
			TotalDisciplinary: len(tx.DisciplinaryRecords()),
			TotalPromotions:   len(tx.Promotions()),
		}
		return nil
	})
	return stats, err
}

// Export returns the whole document without password hashes.
func (s *AdminService) Export(ctx context.Context, caller *types.User) (*store.Snapshot, error) {
	if err := authz.Check(caller, authz.ExportImportJSON); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	for i := range snap.Users {
		snap.Users[i] = snap.Users[i].Public()
	}
	return snap, nil
}

// Import replaces the whole document. Users without a password hash
// keep the hash of the stored user with the same id, so an export can be
// imported back without locking everyone out.
func (s *AdminService) Import(ctx context.Context, caller *types.User, snap *store.Snapshot) error {
	if err := authz.Check(caller, authz.ExportImportJSON); err != nil {
		return err
	}
	if err := validateSnapshotUsers(snap); err != nil {
		return err
	}

	current := s.store.Snapshot()
	hashes := make(map[string]string, len(current.Users))
	for _, u := range current.Users {
		hashes[u.ID] = u.PasswordHash
	}
	next := snap.Clone()
	for i := range next.Users {
		if next.Users[i].PasswordHash == "" {
			next.Users[i].PasswordHash = hashes[next.Users[i].ID]
		}
	}

	if err := s.store.Replace(ctx, next); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionDataImported,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceSnapshot,
		NewValue:           fmt.Sprintf("%d users", len(next.Users)),
	})
	return nil
}

// Backup uploads the current document, password hashes included.
func (s *AdminService) Backup(ctx context.Context, caller *types.User) (string, error) {
	if err := authz.Check(caller, authz.ExportImportJSON); err != nil {
		return "", err
	}
	key, err := s.upload(ctx)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:             ActionBackupUploaded,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceSnapshot,
		TargetResourceID:   key,
	})
	return key, nil
}

// SystemBackup uploads the current document on behalf of the system,
// for scheduled or command-line backups.
func (s *AdminService) SystemBackup(ctx context.Context) (string, error) {
	key, err := s.upload(ctx)
	if err != nil {
		return "", err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:             ActionBackupUploaded,
		PerformedBy:        audit.SystemActor,
		TargetResourceType: resourceSnapshot,
		TargetResourceID:   key,
	})
	return key, nil
}

// Restore replaces the whole document with a backup, hashes included.
// The snapshot is validated the same way an import is.
func (s *AdminService) Restore(ctx context.Context, key string, snap *store.Snapshot) error {
	if err := validateSnapshotUsers(snap); err != nil {
		return err
	}
	if err := s.store.Replace(ctx, snap); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:             ActionBackupRestored,
		PerformedBy:        audit.SystemActor,
		TargetResourceType: resourceSnapshot,
		TargetResourceID:   key,
		NewValue:           fmt.Sprintf("%d users", len(snap.Users)),
	})
	return nil
}

// validateSnapshotUsers rejects a document that would leave the roster
// empty or holds users with missing, duplicate or invalid fields.
func validateSnapshotUsers(snap *store.Snapshot) error {
	if snap == nil {
		return invalid("", "snapshot is required")
	}
	if len(snap.Users) == 0 {
		return invalid("users", "at least one user is required")
	}
	seen := make(map[string]bool, len(snap.Users))
	for i, u := range snap.Users {
		if u.ID == "" {
			return invalid(fmt.Sprintf("users[%d].id", i), "id is required")
		}
		if seen[u.ID] {
			return invalid(fmt.Sprintf("users[%d].id", i), "duplicate id")
		}
		seen[u.ID] = true
		if err := validateUser(u); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *AdminService) upload(ctx context.Context) (string, error) {
	if s.backups == nil {
		return "", ErrBackupsDisabled
	}
	key, err := s.backups.UploadSnapshot(ctx, s.store.Snapshot())
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return key, nil
}
