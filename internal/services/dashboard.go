package services

import (
	"context"
	"sort"
	"time"

	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	recentPromotionWindow = 30 * 24 * time.Hour
	activityPromotions    = 5
	activityLimit         = 10
)

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalPersonnel      int `json:"totalPersonnel"`
	ActiveOnDuty        int `json:"activeOnDuty"`
	RecentPromotions    int `json:"recentPromotions"`
	PendingDisciplinary int `json:"pendingDisciplinary"`
}

// ActivityItem is one line of the recent activity feed.
type ActivityItem struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
}

type DashboardService struct {
	store *store.Store
}

func NewDashboardService(s *store.Store) *DashboardService {
	return &DashboardService{store: s}
}

func (s *DashboardService) Stats(ctx context.Context, caller *types.User) (DashboardStats, error) {
	if err := requireCaller(caller); err != nil {
		return DashboardStats{}, err
	}
	var stats DashboardStats
	err := s.store.View(ctx, func(tx *store.Tx) error {
		since := s.store.Now().Add(-recentPromotionWindow)
		stats.TotalPersonnel = len(tx.Users())
		stats.ActiveOnDuty = len(tx.OpenDutyLogs())
		for _, p := range tx.Promotions() {
			if !p.Date.Before(since) {
				stats.RecentPromotions++
			}
		}
		for _, r := range tx.DisciplinaryRecords() {
			if r.Status == types.DisciplinaryActive {
				stats.PendingDisciplinary++
			}
		}
		return nil
	})
	return stats, err
}

// Activity lists the latest promotions, newest first.
func (s *DashboardService) Activity(ctx context.Context, caller *types.User) ([]ActivityItem, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	items := []ActivityItem{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		promotions := tx.Promotions()
		if len(promotions) > activityPromotions {
			promotions = promotions[len(promotions)-activityPromotions:]
		}
		for _, p := range promotions {
			user, err := tx.User(p.UserID)
			if err != nil {
				continue
			}
			items = append(items, ActivityItem{
				Type:        "promotion",
				Title:       "Promotion",
				Description: user.DisplayName() + " promoted to " + p.ToRank,
				Time:        p.Date,
			})
		}
		return nil
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time.After(items[j].Time) })
	if len(items) > activityLimit {
		items = items[:activityLimit]
	}
	return items, err
}
