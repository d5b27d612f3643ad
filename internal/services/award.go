package services

import (
	"context"
	"strings"
	"time"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionAwardCreated = "award_created"
	ActionAwardGranted = "award_granted"
	ActionAwardRevoked = "award_revoked"

	resourceAward     = "award"
	resourceUserAward = "user_award"
)

// CreateAwardInput is a new catalog entry.
type CreateAwardInput struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Category     string `json:"category"`
	Precedence   int    `json:"precedence"`
	Description  string `json:"description,omitempty"`
}

// GrantAwardInput attaches one award instance to a member.
type GrantAwardInput struct {
	AwardID         string     `json:"awardId"`
	DateAwarded     *time.Time `json:"dateAwarded,omitempty"`
	OakLeafClusters int        `json:"oakLeafClusters"`
	VDevice         bool       `json:"vDevice"`
	CDevice         bool       `json:"cDevice"`
	Citation        string     `json:"citation,omitempty"`
}

// UserAwardView is a granted award with its catalog entry.
type UserAwardView struct {
	types.UserAward
	Award *types.Award `json:"award,omitempty"`
}

// AwardService manages the award catalog and granted decorations.
type AwardService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewAwardService(s *store.Store, rec *audit.Recorder) *AwardService {
	return &AwardService{store: s, audit: rec}
}

// Catalog returns every award in precedence order.
func (s *AwardService) Catalog(ctx context.Context, caller *types.User) ([]types.Award, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var awards []types.Award
	err := s.store.View(ctx, func(tx *store.Tx) error {
		awards = tx.Awards()
		return nil
	})
	return awards, err
}

// CreateAward adds a catalog entry.
func (s *AwardService) CreateAward(ctx context.Context, caller *types.User, in CreateAwardInput) (types.Award, error) {
	if err := authz.Check(caller, authz.ManageMeritPoints); err != nil {
		return types.Award{}, err
	}
	award := types.Award{
		Name:         strings.TrimSpace(in.Name),
		Abbreviation: strings.TrimSpace(in.Abbreviation),
		Category:     strings.TrimSpace(in.Category),
		Precedence:   in.Precedence,
		Description:  strings.TrimSpace(in.Description),
	}
	switch {
	case award.Name == "":
		return types.Award{}, invalid("name", "name is required")
	case award.Abbreviation == "":
		return types.Award{}, invalid("abbreviation", "abbreviation is required")
	case award.Category == "":
		return types.Award{}, invalid("category", "category is required")
	}

	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		award, err = tx.CreateAward(award)
		return err
	})
	if err != nil {
		return types.Award{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionAwardCreated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceAward,
		TargetResourceID:   award.ID,
		NewValue:           award.Name,
	})
	return award, nil
}

// Grant attaches an award to userID. The same award may be granted any
// number of times.
func (s *AwardService) Grant(ctx context.Context, caller *types.User, userID string, in GrantAwardInput) (types.UserAward, error) {
	if err := authz.Check(caller, authz.ManageMeritPoints); err != nil {
		return types.UserAward{}, err
	}
	if strings.TrimSpace(in.AwardID) == "" {
		return types.UserAward{}, invalid("awardId", "award is required")
	}
	if in.OakLeafClusters < 0 {
		return types.UserAward{}, invalid("oakLeafClusters", "must not be negative")
	}
	dateAwarded := s.store.Now()
	if in.DateAwarded != nil {
		dateAwarded = *in.DateAwarded
	}

	var granted types.UserAward
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.User(userID); err != nil {
			return err
		}
		if _, err := tx.Award(in.AwardID); err != nil {
			return err
		}
		var err error
		granted, err = tx.CreateUserAward(types.UserAward{
			UserID:          userID,
			AwardID:         in.AwardID,
			DateAwarded:     dateAwarded,
			AwardedBy:       caller.ID,
			OakLeafClusters: in.OakLeafClusters,
			VDevice:         in.VDevice,
			CDevice:         in.CDevice,
			Citation:        strings.TrimSpace(in.Citation),
		})
		return err
	})
	if err != nil {
		return types.UserAward{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionAwardGranted,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceUserAward,
		TargetResourceID:   granted.ID,
		NewValue:           marshalString(map[string]string{"userId": userID, "awardId": in.AwardID}),
	})
	return granted, nil
}

// Revoke deletes a granted award. The removed row is kept only in the
// audit entry.
func (s *AwardService) Revoke(ctx context.Context, caller *types.User, userAwardID string) error {
	if err := authz.Check(caller, authz.ManageMeritPoints); err != nil {
		return err
	}

	var removed types.UserAward
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		removed, err = tx.UserAward(userAwardID)
		if err != nil {
			return err
		}
		return tx.DeleteUserAward(userAwardID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionAwardRevoked,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceUserAward,
		TargetResourceID:   userAwardID,
		PreviousValue:      marshalString(removed),
	})
	return nil
}

// ListForUser returns the awards of userID with their catalog entries.
func (s *AwardService) ListForUser(ctx context.Context, caller *types.User, userID string) ([]UserAwardView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	result := []UserAwardView{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, ua := range tx.UserAwardsByUser(userID) {
			v := UserAwardView{UserAward: ua}
			if award, err := tx.Award(ua.AwardID); err == nil {
				v.Award = &award
			}
			result = append(result, v)
		}
		return nil
	})
	return result, err
}
