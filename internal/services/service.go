// Package services implements the roster use-cases. Every mutating
// operation runs inside one store transaction and is followed by an
// audit entry.
package services

import (
	"time"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

// Unknown is the display name used when a referenced user is gone.
const Unknown = "Unknown"

// Services bundles every use-case over one store.
type Services struct {
	Auth         *AuthService
	Users        *UserService
	Duty         *DutyService
	Disciplinary *DisciplinaryService
	Promotions   *PromotionService
	Merit        *MeritService
	Missions     *MissionService
	Units        *UnitService
	Awards       *AwardService
	Audit        *AuditService
	Dashboard    *DashboardService
	Admin        *AdminService
}

// New wires every service. backups may be nil when no object storage is
// configured.
func New(s *store.Store, rec *audit.Recorder, hasher Hasher, backups BackupUploader) *Services {
	return &Services{
		Auth:         NewAuthService(s, rec, hasher),
		Users:        NewUserService(s, rec, hasher),
		Duty:         NewDutyService(s, rec),
		Disciplinary: NewDisciplinaryService(s, rec),
		Promotions:   NewPromotionService(s, rec),
		Merit:        NewMeritService(s, rec),
		Missions:     NewMissionService(s, rec),
		Units:        NewUnitService(s, rec),
		Awards:       NewAwardService(s, rec),
		Audit:        NewAuditService(s),
		Dashboard:    NewDashboardService(s),
		Admin:        NewAdminService(s, rec, backups),
	}
}

func requireCaller(caller *types.User) error {
	if caller == nil {
		return authz.ErrUnauthenticated
	}
	return nil
}

// displayNames maps user ids to "First Last".
func displayNames(tx *store.Tx) map[string]string {
	users := tx.Users()
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName()
	}
	return names
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return Unknown
}

func timePtr(t time.Time) *time.Time {
	return &t
}
