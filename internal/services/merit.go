package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionMeritAwarded    = "merit_points_awarded"
	ActionMeritReconciled = "merit_points_reconciled"

	resourceMeritTransaction = "merit_transaction"
)

// AwardMeritInput is a signed change to a member's merit balance.
type AwardMeritInput struct {
	UserID           string `json:"userId"`
	Amount           int    `json:"amount"`
	Reason           string `json:"reason"`
	RelatedMissionID string `json:"relatedMissionId,omitempty"`
}

// MeritView is a ledger row with the member's display name.
type MeritView struct {
	types.MeritPointTransaction
	UserName string `json:"userName"`
}

// LeaderboardEntry is one row of the merit leaderboard.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Rank     string `json:"rank"`
	Points   int    `json:"points"`
}

// BalanceCorrection records a cached balance rewritten from the ledger.
type BalanceCorrection struct {
	UserID   string `json:"userId"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// MeritService keeps the merit ledger and the cached balance on each
// user in step.
type MeritService struct {
	store *store.Store
	audit *audit.Recorder
}

func NewMeritService(s *store.Store, rec *audit.Recorder) *MeritService {
	return &MeritService{store: s, audit: rec}
}

// Award appends a ledger row and moves the cached balance by the same
// amount in one transaction.
func (s *MeritService) Award(ctx context.Context, caller *types.User, in AwardMeritInput) (types.MeritPointTransaction, error) {
	if err := authz.Check(caller, authz.ManageMeritPoints); err != nil {
		return types.MeritPointTransaction{}, err
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.Reason = strings.TrimSpace(in.Reason)
	switch {
	case in.UserID == "":
		return types.MeritPointTransaction{}, invalid("userId", "user is required")
	case in.Amount == 0:
		return types.MeritPointTransaction{}, invalid("amount", "amount must be non-zero")
	case in.Reason == "":
		return types.MeritPointTransaction{}, invalid("reason", "reason is required")
	}

	var (
		txn        types.MeritPointTransaction
		oldBalance int
		newBalance int
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		user, err := tx.User(in.UserID)
		if err != nil {
			return err
		}
		if in.RelatedMissionID != "" {
			if _, err := tx.Mission(in.RelatedMissionID); err != nil {
				return invalid("relatedMissionId", "unknown mission")
			}
		}

		txn, err = tx.CreateMeritTransaction(types.MeritPointTransaction{
			UserID:           user.ID,
			Amount:           in.Amount,
			Reason:           in.Reason,
			IssuedBy:         caller.ID,
			RelatedMissionID: in.RelatedMissionID,
			Date:             s.store.Now(),
		})
		if err != nil {
			return err
		}

		oldBalance = user.MeritPoints
		newBalance = oldBalance + in.Amount
		user.MeritPoints = newBalance
		_, err = tx.UpdateUser(user)
		return err
	})
	if err != nil {
		return types.MeritPointTransaction{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionMeritAwarded,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceMeritTransaction,
		TargetResourceID:   txn.ID,
		PreviousValue:      strconv.Itoa(oldBalance),
		NewValue:           strconv.Itoa(newBalance),
	})
	return txn, nil
}

// List returns the whole ledger to merit managers and the caller's own
// rows to everyone else.
func (s *MeritService) List(ctx context.Context, caller *types.User) ([]MeritView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	result := []MeritView{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var txns []types.MeritPointTransaction
		if authz.Has(caller.Role, authz.ManageMeritPoints) {
			txns = tx.MeritTransactions()
		} else {
			txns = tx.MeritTransactionsByUser(caller.ID)
		}
		names := displayNames(tx)
		for _, t := range txns {
			result = append(result, MeritView{MeritPointTransaction: t, UserName: nameOr(names, t.UserID)})
		}
		return nil
	})
	return result, err
}

// Leaderboard ranks active members by merit balance, highest first.
func (s *MeritService) Leaderboard(ctx context.Context, caller *types.User) ([]LeaderboardEntry, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	board := []LeaderboardEntry{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, u := range tx.Users() {
			if !u.IsActive() {
				continue
			}
			board = append(board, LeaderboardEntry{
				UserID:   u.ID,
				UserName: u.DisplayName(),
				Rank:     u.Rank,
				Points:   u.MeritPoints,
			})
		}
		return nil
	})
	sort.SliceStable(board, func(i, j int) bool { return board[i].Points > board[j].Points })
	return board, err
}

// Balance sums the ledger of userID.
func (s *MeritService) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.User(userID); err != nil {
			return err
		}
		balance = tx.MeritBalance(userID)
		return nil
	})
	return balance, err
}

// Reconcile rewrites every cached balance that differs from its ledger
// sum, for snapshots edited or imported by hand.
func (s *MeritService) Reconcile(ctx context.Context, caller *types.User) ([]BalanceCorrection, error) {
	if err := authz.Check(caller, authz.ManageMeritPoints); err != nil {
		return nil, err
	}

	corrections := []BalanceCorrection{}
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		for _, u := range tx.Users() {
			sum := tx.MeritBalance(u.ID)
			if sum == u.MeritPoints {
				continue
			}
			corrections = append(corrections, BalanceCorrection{UserID: u.ID, Previous: u.MeritPoints, Current: sum})
			u.MeritPoints = sum
			if _, err := tx.UpdateUser(u); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range corrections {
		s.audit.Record(ctx, audit.Entry{
			Action:             ActionMeritReconciled,
			PerformedBy:        caller.ID,
			TargetResourceType: resourceUser,
			TargetResourceID:   c.UserID,
			PreviousValue:      strconv.Itoa(c.Previous),
			NewValue:           strconv.Itoa(c.Current),
		})
	}
	return corrections, nil
}
