package services

import (
	"context"

	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

// AuditView is an audit entry with the performer's display name.
type AuditView struct {
	types.AuditLog
	PerformedByName string `json:"performedByName"`
}

// AuditService reads the audit trail. Writing goes through
// audit.Recorder.
type AuditService struct {
	store *store.Store
}

func NewAuditService(s *store.Store) *AuditService {
	return &AuditService{store: s}
}

// List returns entries newest first, skipping offset and returning at
// most limit. A limit of zero or less returns everything after offset.
// The total number of entries is returned alongside.
func (s *AuditService) List(ctx context.Context, caller *types.User, offset, limit int) ([]AuditView, int, error) {
	if err := authz.Check(caller, authz.ViewAuditLogs); err != nil {
		return nil, 0, err
	}

	result := []AuditView{}
	var total int
	err := s.store.View(ctx, func(tx *store.Tx) error {
		logs := tx.AuditLogs()
		total = len(logs)
		names := displayNames(tx)
		for i := len(logs) - 1 - offset; i >= 0; i-- {
			if limit > 0 && len(result) == limit {
				break
			}
			result = append(result, AuditView{AuditLog: logs[i], PerformedByName: nameOr(names, logs[i].PerformedBy)})
		}
		return nil
	})
	return result, total, err
}
