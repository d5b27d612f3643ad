package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/ranks"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionPromotionApproved = "promotion_approved"

	resourcePromotion = "promotion"

	// EligibilityMeritThreshold is the merit balance needed to be
	// reported as eligible for promotion.
	EligibilityMeritThreshold = 50
)

// PromoteInput names the member and the target rank.
type PromoteInput struct {
	UserID string `json:"userId"`
	ToRank string `json:"toRank"`
	Reason string `json:"reason,omitempty"`
}

// Eligibility is an advisory pre-check. Promote does not consult it.
type Eligibility struct {
	UserID   string   `json:"userId"`
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

// PromotionView is a promotion with the member's display name.
type PromotionView struct {
	types.Promotion
	UserName string `json:"userName"`
}

// PromotionService raises member ranks.
type PromotionService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewPromotionService(s *store.Store, rec *audit.Recorder) *PromotionService {
	return &PromotionService{store: s, audit: rec}
}

// Promote moves the member to a strictly higher rank. The promotion row
// and the rank change are written together.
func (s *PromotionService) Promote(ctx context.Context, caller *types.User, in PromoteInput) (types.Promotion, error) {
	if err := authz.Check(caller, authz.Promote); err != nil {
		return types.Promotion{}, err
	}
	if strings.TrimSpace(in.UserID) == "" {
		return types.Promotion{}, invalid("userId", "user is required")
	}

	var promotion types.Promotion
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		user, err := tx.User(in.UserID)
		if err != nil {
			return err
		}
		from, okFrom := ranks.Lookup(user.Rank)
		to, okTo := ranks.Lookup(in.ToRank)
		if !okFrom || !okTo {
			return ErrInvalidRank
		}
		if to.Level <= from.Level {
			return ErrInvalidPromotion
		}

		promotion, err = tx.CreatePromotion(types.Promotion{
			UserID:     user.ID,
			FromRank:   from.Code,
			ToRank:     to.Code,
			ApprovedBy: caller.ID,
			Reason:     strings.TrimSpace(in.Reason),
			Date:       s.store.Now(),
		})
		if err != nil {
			return err
		}
		user.Rank = to.Code
		_, err = tx.UpdateUser(user)
		return err
	})
	if err != nil {
		return types.Promotion{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionPromotionApproved,
		PerformedBy:        caller.ID,
		TargetResourceType: resourcePromotion,
		TargetResourceID:   promotion.ID,
		PreviousValue:      promotion.FromRank,
		NewValue:           promotion.ToRank,
	})
	return promotion, nil
}

// Eligibility reports whether userID meets the merit threshold and has
// no active severe disciplinary record.
func (s *PromotionService) Eligibility(ctx context.Context, caller *types.User, userID string) (Eligibility, error) {
	if err := authz.Check(caller, authz.Promote); err != nil {
		return Eligibility{}, err
	}

	result := Eligibility{UserID: userID, Eligible: true, Reasons: []string{}}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		if user.MeritPoints < EligibilityMeritThreshold {
			result.Eligible = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"Insufficient merit points (%d/%d required)", user.MeritPoints, EligibilityMeritThreshold))
		}
		for _, r := range tx.DisciplinaryRecordsByUser(userID) {
			if r.Status == types.DisciplinaryActive && r.Category == types.CategorySevere {
				result.Eligible = false
				result.Reasons = append(result.Reasons, "Has active severe disciplinary records")
				break
			}
		}
		return nil
	})
	if err != nil {
		return Eligibility{}, err
	}
	if result.Eligible {
		result.Reasons = append(result.Reasons, "All requirements met")
	}
	return result, nil
}

// List returns every promotion.
func (s *PromotionService) List(ctx context.Context, caller *types.User) ([]PromotionView, error) {
	if err := authz.Check(caller, authz.Promote); err != nil {
		return nil, err
	}
	result := []PromotionView{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		names := displayNames(tx)
		for _, p := range tx.Promotions() {
			result = append(result, PromotionView{Promotion: p, UserName: nameOr(names, p.UserID)})
		}
		return nil
	})
	return result, err
}

// ListOwn returns the caller's promotions.
func (s *PromotionService) ListOwn(ctx context.Context, caller *types.User) ([]types.Promotion, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var promotions []types.Promotion
	err := s.store.View(ctx, func(tx *store.Tx) error {
		promotions = tx.PromotionsByUser(caller.ID)
		return nil
	})
	return promotions, err
}
