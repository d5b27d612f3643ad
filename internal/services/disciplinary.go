package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionDisciplinaryCreated = "disciplinary_created"
	ActionDisciplinaryUpdated = "disciplinary_updated"

	resourceDisciplinary = "disciplinary_record"

	// MinReasonLength is the shortest accepted violation description.
	MinReasonLength = 10
)

// CreateDisciplinaryInput describes a reported violation.
type CreateDisciplinaryInput struct {
	UserID   string     `json:"userId"`
	Reason   string     `json:"reason"`
	Category string     `json:"category"`
	Evidence []string   `json:"evidence,omitempty"`
	Notes    string     `json:"notes,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
}

// DisciplinaryPatch changes the non-nil fields of a record.
type DisciplinaryPatch struct {
	Status   *string   `json:"status,omitempty"`
	Category *string   `json:"category,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	Evidence *[]string `json:"evidence,omitempty"`
}

// DisciplinaryView is a record with its subject's display name.
type DisciplinaryView struct {
	types.DisciplinaryRecord
	UserName string `json:"userName"`
}

// DisciplinaryService manages violation records.
type DisciplinaryService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewDisciplinaryService(s *store.Store, rec *audit.Recorder) *DisciplinaryService {
	return &DisciplinaryService{store: s, audit: rec}
}

// Create stores a new active record issued by the caller.
func (s *DisciplinaryService) Create(ctx context.Context, caller *types.User, in CreateDisciplinaryInput) (types.DisciplinaryRecord, error) {
	if err := authz.Check(caller, authz.CreateDisciplinary); err != nil {
		return types.DisciplinaryRecord{}, err
	}

	in.UserID = strings.TrimSpace(in.UserID)
	in.Reason = strings.TrimSpace(in.Reason)
	if in.UserID == "" {
		return types.DisciplinaryRecord{}, invalid("userId", "user is required")
	}
	if !validCategory(in.Category) {
		return types.DisciplinaryRecord{}, invalid("category", "category must be minor, moderate or severe")
	}
	if utf8.RuneCountInString(in.Reason) < MinReasonLength {
		return types.DisciplinaryRecord{}, invalid("reason", "reason must be at least 10 characters")
	}

	date := s.store.Now()
	if in.Date != nil {
		date = *in.Date
	}

	var record types.DisciplinaryRecord
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.User(in.UserID); err != nil {
			return err
		}
		var err error
		record, err = tx.CreateDisciplinaryRecord(types.DisciplinaryRecord{
			UserID:   in.UserID,
			IssuedBy: caller.ID,
			Reason:   in.Reason,
			Category: in.Category,
			Status:   types.DisciplinaryActive,
			Evidence: in.Evidence,
			Notes:    strings.TrimSpace(in.Notes),
			Date:     date,
		})
		return err
	})
	if err != nil {
		return types.DisciplinaryRecord{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionDisciplinaryCreated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceDisciplinary,
		TargetResourceID:   record.ID,
		NewValue:           record.Reason,
	})
	return record, nil
}

// List returns every record with the subject's name.
func (s *DisciplinaryService) List(ctx context.Context, caller *types.User) ([]DisciplinaryView, error) {
	if err := authz.Check(caller, authz.ViewAllDisciplinary); err != nil {
		return nil, err
	}
	result := []DisciplinaryView{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		names := displayNames(tx)
		for _, r := range tx.DisciplinaryRecords() {
			result = append(result, DisciplinaryView{DisciplinaryRecord: r, UserName: nameOr(names, r.UserID)})
		}
		return nil
	})
	return result, err
}

// ListOwn returns the records issued against the caller.
func (s *DisciplinaryService) ListOwn(ctx context.Context, caller *types.User) ([]types.DisciplinaryRecord, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var records []types.DisciplinaryRecord
	err := s.store.View(ctx, func(tx *store.Tx) error {
		records = tx.DisciplinaryRecordsByUser(caller.ID)
		return nil
	})
	return records, err
}

// Update applies patch and bumps the record version. Concurrent updates
// are not detected; the last one wins.
func (s *DisciplinaryService) Update(ctx context.Context, caller *types.User, id string, patch DisciplinaryPatch) (types.DisciplinaryRecord, error) {
	if err := authz.Check(caller, authz.UpdateDisciplinary); err != nil {
		return types.DisciplinaryRecord{}, err
	}
	if patch.Status != nil && !validDisciplinaryStatus(*patch.Status) {
		return types.DisciplinaryRecord{}, invalid("status", "status must be active, appealed or closed")
	}
	if patch.Category != nil && !validCategory(*patch.Category) {
		return types.DisciplinaryRecord{}, invalid("category", "category must be minor, moderate or severe")
	}

	var before, after types.DisciplinaryRecord
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		before, err = tx.DisciplinaryRecord(id)
		if err != nil {
			return err
		}
		updated := before
		if patch.Status != nil {
			updated.Status = *patch.Status
		}
		if patch.Category != nil {
			updated.Category = *patch.Category
		}
		if patch.Notes != nil {
			updated.Notes = strings.TrimSpace(*patch.Notes)
		}
		if patch.Evidence != nil {
			updated.Evidence = *patch.Evidence
		}
		after, err = tx.UpdateDisciplinaryRecord(updated)
		return err
	})
	if err != nil {
		return types.DisciplinaryRecord{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionDisciplinaryUpdated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceDisciplinary,
		TargetResourceID:   id,
		PreviousValue:      before.Status,
		NewValue:           after.Status,
	})
	return after, nil
}

func validCategory(c string) bool {
	switch c {
	case types.CategoryMinor, types.CategoryModerate, types.CategorySevere:
		return true
	}
	return false
}

func validDisciplinaryStatus(st string) bool {
	switch st {
	case types.DisciplinaryActive, types.DisciplinaryAppealed, types.DisciplinaryClosed:
		return true
	}
	return false
}
