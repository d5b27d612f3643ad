// Package authz maps roles to permission strings and checks callers
// against them. The table is enumerated per role on purpose: roles do
// not inherit from one another.
package authz

import (
	"errors"
	"slices"

	"github.com/ilng/roster/types"
)

var (
	// ErrUnauthenticated is returned when no caller is attached.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role lacks a permission.
	ErrForbidden = errors.New("insufficient permissions")
)

// Roles.
const (
	RoleSoldier = "Soldier"
	RoleMP      = "MP"
	RoleColonel = "Colonel"
	RoleGeneral = "General"
	RoleAdmin   = "Admin"
)

// Permissions.
const (
	ViewOwnProfile       = "view_own_profile"
	ViewOwnDuty          = "view_own_duty"
	ViewOwnDisciplinary  = "view_own_disciplinary"
	ViewOwnPromotions    = "view_own_promotions"
	DutyOnOff            = "duty_on_off"
	ViewAllDisciplinary  = "view_all_disciplinary"
	CreateDisciplinary   = "create_disciplinary"
	UpdateDisciplinary   = "update_disciplinary"
	RevokeDisciplinary   = "revoke_disciplinary"
	ViewUnitReports      = "view_unit_reports"
	ViewAllReports       = "view_all_reports"
	Promote              = "promote"
	Demote               = "demote"
	ManageMeritPoints    = "manage_merit_points"
	OverrideDisciplinary = "override_disciplinary"
	ViewAuditLogs        = "view_audit_logs"
	ManageUsers          = "manage_users"
	ManageRolesMap       = "manage_roles_map"
	ManageUnits          = "manage_units"
	ExportImportJSON     = "export_import_json"
	ConfigureBot         = "configure_bot"
)

var roleOrder = []string{RoleSoldier, RoleMP, RoleColonel, RoleGeneral, RoleAdmin}

var table = map[string][]string{
	RoleSoldier: {
		ViewOwnProfile,
		ViewOwnDuty,
		ViewOwnDisciplinary,
		ViewOwnPromotions,
		DutyOnOff,
	},
	RoleMP: {
		ViewOwnProfile,
		ViewOwnDuty,
		ViewAllDisciplinary,
		CreateDisciplinary,
		UpdateDisciplinary,
		RevokeDisciplinary,
		ViewUnitReports,
		DutyOnOff,
	},
	RoleColonel: {
		ViewOwnProfile,
		ViewOwnDuty,
		ViewAllDisciplinary,
		CreateDisciplinary,
		UpdateDisciplinary,
		RevokeDisciplinary,
		ViewUnitReports,
		ViewAllReports,
		DutyOnOff,
	},
	RoleGeneral: {
		ViewOwnProfile,
		ViewOwnDuty,
		ViewAllDisciplinary,
		CreateDisciplinary,
		UpdateDisciplinary,
		RevokeDisciplinary,
		Promote,
		Demote,
		ViewAllReports,
		ManageMeritPoints,
		OverrideDisciplinary,
		ViewAuditLogs,
		DutyOnOff,
	},
	RoleAdmin: {
		ManageUsers,
		ManageRolesMap,
		ManageUnits,
		ExportImportJSON,
		ConfigureBot,
		ViewAuditLogs,
		ViewAllReports,
		ViewAllDisciplinary,
	},
}

// Roles returns the known roles.
func Roles() []string {
	return slices.Clone(roleOrder)
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := table[role]
	return ok
}

// Permissions returns the permission set of role in table order.
// Unknown roles have none.
func Permissions(role string) []string {
	return slices.Clone(table[role])
}

// Has reports whether role grants perm.
func Has(role, perm string) bool {
	return slices.Contains(table[role], perm)
}

// Check fails with ErrUnauthenticated when caller is nil and with
// ErrForbidden when the caller's role does not grant perm.
func Check(caller *types.User, perm string) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if !Has(caller.Role, perm) {
		return ErrForbidden
	}
	return nil
}
