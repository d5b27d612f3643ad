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
	ActionMissionCreated = "mission_created"

	resourceMission = "mission"
)

// CreateMissionInput is an after-action report.
type CreateMissionInput struct {
	Title              string   `json:"title"`
	MissionCode        string   `json:"missionCode"`
	Description        string   `json:"description"`
	Participants       []string `json:"participants"`
	Duration           int      `json:"duration"`
	Outcome            string   `json:"outcome"`
	MeritPointsAwarded int      `json:"meritPointsAwarded"`
	Notes              string   `json:"notes,omitempty"`
}

// MissionView is a mission with its commander's display name.
type MissionView struct {
	types.Mission
	CommanderName string `json:"commanderName"`
}

// MissionService records mission reports. The merit points on a mission
// are informational and never reach the merit ledger.
type MissionService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewMissionService(s *store.Store, rec *audit.Recorder) *MissionService {
	return &MissionService{store: s, audit: rec}
}

// Create stores a report with the caller as commander.
func (s *MissionService) Create(ctx context.Context, caller *types.User, in CreateMissionInput) (types.Mission, error) {
	if err := authz.Check(caller, authz.ViewAllReports); err != nil {
		return types.Mission{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.MissionCode = strings.TrimSpace(in.MissionCode)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Title == "":
		return types.Mission{}, invalid("title", "title is required")
	case in.MissionCode == "":
		return types.Mission{}, invalid("missionCode", "mission code is required")
	case in.Description == "":
		return types.Mission{}, invalid("description", "description is required")
	case !validOutcome(in.Outcome):
		return types.Mission{}, invalid("outcome", "outcome must be success, partial or failed")
	case in.Duration < 0:
		return types.Mission{}, invalid("duration", "duration must not be negative")
	}
	participants := in.Participants
	if participants == nil {
		participants = []string{}
	}

	var mission types.Mission
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		for _, id := range participants {
			if _, err := tx.User(id); err != nil {
				return invalid("participants", "unknown participant "+id)
			}
		}
		var err error
		mission, err = tx.CreateMission(types.Mission{
			Title:              in.Title,
			MissionCode:        in.MissionCode,
			Description:        in.Description,
			CommanderID:        caller.ID,
			Participants:       participants,
			Date:               s.store.Now(),
			Duration:           in.Duration,
			Outcome:            in.Outcome,
			MeritPointsAwarded: in.MeritPointsAwarded,
			Notes:              strings.TrimSpace(in.Notes),
		})
		return err
	})
	if err != nil {
		return types.Mission{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionMissionCreated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceMission,
		TargetResourceID:   mission.ID,
		NewValue:           mission.Title,
	})
	return mission, nil
}

// List returns every mission.
func (s *MissionService) List(ctx context.Context, caller *types.User) ([]MissionView, error) {
	if err := authz.Check(caller, authz.ViewAllReports); err != nil {
		return nil, err
	}
	result := []MissionView{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		names := displayNames(tx)
		for _, m := range tx.Missions() {
			result = append(result, MissionView{Mission: m, CommanderName: nameOr(names, m.CommanderID)})
		}
		return nil
	})
	return result, err
}

func validOutcome(o string) bool {
	switch o {
	case types.OutcomeSuccess, types.OutcomePartial, types.OutcomeFailed:
		return true
	}
	return false
}
