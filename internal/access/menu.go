package access

import (
	"github.com/samber/lo"

	"medisync/internal/model"
)

// MenuItem is one entry of the navigation sidebar.
type MenuItem struct {
	Label      string     `json:"label"`
	Path       string     `json:"path"`
	Capability Capability `json:"-"`
}

// menu is in display order.
var menu = []MenuItem{
	{Label: "Dashboard", Path: "/dashboard", Capability: ViewDashboard},
	{Label: "Patient Intake", Path: "/patient-intake", Capability: IntakePatients},
	{Label: "Users", Path: "/users", Capability: ManageUsers},
	{Label: "Patients", Path: "/patients", Capability: BrowsePatients},
	{Label: "Tasks", Path: "/tasks", Capability: ViewTasks},
}

// Menu returns the entries a role may see.
func Menu(role model.Role) []MenuItem {
	return lo.Filter(menu, func(item MenuItem, _ int) bool {
		return Can(role, item.Capability)
	})
}
