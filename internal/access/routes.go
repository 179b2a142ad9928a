package access

import (
	"strings"

	"medisync/internal/model"
)

// Route is a front-end path and the capability it requires. An empty capability means any signed-in user.
type Route struct {
	Pattern    string
	Capability Capability
}

// Roles derives the required role set from the capability map.
func (r Route) Roles() []model.Role {
	if r.Capability == "" {
		return nil
	}
	return RolesWith(r.Capability)
}

// Routes is the front-end route table.
var Routes = []Route{
	{Pattern: "/dashboard"},
	{Pattern: "/users", Capability: ManageUsers},
	{Pattern: "/patient-intake", Capability: IntakePatients},
	{Pattern: "/patients"},
	{Pattern: "/patients/:id"},
	{Pattern: "/patients/:id/tasks", Capability: AssignTasks},
	{Pattern: "/tasks"},
}

// Match finds the route for path and extracts its :params.
func Match(path string) (Route, map[string]string, bool) {
	segments := split(path)
	for _, route := range Routes {
		if params, ok := matchSegments(split(route.Pattern), segments); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// CheckPath decides navigation to a front-end path. Unknown paths fall back to the landing page.
func CheckPath(session Session, path string) Decision {
	route, _, ok := Match(path)
	if !ok {
		d := Decide(session, nil)
		if d.Outcome == Render {
			return Decision{Outcome: RedirectLanding, Redirect: LandingPath}
		}
		return d
	}
	return Decide(session, route.Roles())
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return nil, false
			}
			params[seg[1:]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}
