package access

import (
	"github.com/samber/lo"

	"medisync/internal/model"
)

// Capability is a named permission granted to a set of roles.
type Capability string

const (
	ViewDashboard       Capability = "view-dashboard"
	ViewTasks           Capability = "view-tasks"
	IntakePatients      Capability = "intake-patients"
	BrowsePatients      Capability = "browse-patients"
	UpdatePatientStatus Capability = "update-patient-status"
	AssignTasks         Capability = "assign-tasks"
	ViewAllTasks        Capability = "view-all-tasks"
	UpdateAnyTask       Capability = "update-any-task"
	ManageUsers         Capability = "manage-users"
)

// grants is the only place roles are mapped to permissions. Every role has an entry.
var grants = map[model.Role][]Capability{
	model.RoleDoctor: {
		ViewDashboard, ViewTasks,
		IntakePatients, UpdatePatientStatus, UpdateAnyTask,
	},
	model.RoleNurse: {
		ViewDashboard, ViewTasks,
	},
	model.RoleCoordinator: {
		ViewDashboard, ViewTasks,
		BrowsePatients, UpdatePatientStatus, AssignTasks, ViewAllTasks, UpdateAnyTask,
	},
	model.RoleAdmin: {
		ViewDashboard, ViewTasks,
		IntakePatients, BrowsePatients, UpdatePatientStatus, AssignTasks, ViewAllTasks, UpdateAnyTask,
		ManageUsers,
	},
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role model.Role, capability Capability) bool {
	return lo.Contains(grants[role], capability)
}

// Capabilities returns the capability set of a role.
func Capabilities(role model.Role) []Capability {
	return append([]Capability(nil), grants[role]...)
}

// RolesWith returns the roles holding capability, in model.Roles order.
func RolesWith(capability Capability) []model.Role {
	return lo.Filter(model.Roles, func(role model.Role, _ int) bool {
		return Can(role, capability)
	})
}
