package services

import (
	"context"
	"strings"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionUnitCreated = "unit_created"

	resourceUnit = "unit"
)

// CreateUnitInput describes an organisational unit.
type CreateUnitInput struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	CommanderID  string `json:"commanderId,omitempty"`
	Description  string `json:"description,omitempty"`
}

type UnitService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewUnitService(s *store.Store, rec *audit.Recorder) *UnitService {
	return &UnitService{store: s, audit: rec}
}

func (s *UnitService) List(ctx context.Context, caller *types.User) ([]types.Unit, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var units []types.Unit
	err := s.store.View(ctx, func(tx *store.Tx) error {
		units = tx.Units()
		return nil
	})
	return units, err
}

func (s *UnitService) Create(ctx context.Context, caller *types.User, in CreateUnitInput) (types.Unit, error) {
	if err := authz.Check(caller, authz.ManageUnits); err != nil {
		return types.Unit{}, err
	}
	unit := types.Unit{
		Name:         strings.TrimSpace(in.Name),
		Abbreviation: strings.TrimSpace(in.Abbreviation),
		CommanderID:  strings.TrimSpace(in.CommanderID),
		Description:  strings.TrimSpace(in.Description),
	}
	if unit.Name == "" {
		return types.Unit{}, invalid("name", "name is required")
	}
	if unit.Abbreviation == "" {
		return types.Unit{}, invalid("abbreviation", "abbreviation is required")
	}

	err := s.store.Update(ctx, func(tx *store.Tx) error {
		if unit.CommanderID != "" {
			if _, err := tx.User(unit.CommanderID); err != nil {
				return invalid("commanderId", "unknown commander")
			}
		}
		var err error
		unit, err = tx.CreateUnit(unit)
		return err
	})
	if err != nil {
		return types.Unit{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionUnitCreated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceUnit,
		TargetResourceID:   unit.ID,
		NewValue:           unit.Name,
	})
	return unit, nil
}
