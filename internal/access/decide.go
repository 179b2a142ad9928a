package access

import (
	"github.com/samber/lo"

	"medisync/internal/model"
)

const (
	// LoginPath is where unauthenticated sessions are sent.
	LoginPath = "/login"
	// LandingPath is where authenticated sessions without the required role are sent.
	LandingPath = "/dashboard"
)

// Session is the client-visible authentication state.
type Session struct {
	User    *model.User `json:"user"`
	Loading bool        `json:"loading"`
	Err     string      `json:"error,omitempty"`
}

// Outcome is the result of a gate decision.
type Outcome string

const (
	Wait            Outcome = "wait"
	Render          Outcome = "render"
	RedirectLogin   Outcome = "redirect-login"
	RedirectLanding Outcome = "redirect-landing"
)

// Decision is an outcome plus the navigation target for redirects.
type Decision struct {
	Outcome  Outcome `json:"decision"`
	Redirect string  `json:"redirect,omitempty"`
}

// Decide gates content on the session. An empty required set admits any signed-in user.
func Decide(session Session, required []model.Role) Decision {
	switch {
	case session.Loading:
		return Decision{Outcome: Wait}
	case session.User == nil:
		return Decision{Outcome: RedirectLogin, Redirect: LoginPath}
	case len(required) > 0 && !lo.Contains(required, session.User.Role):
		return Decision{Outcome: RedirectLanding, Redirect: LandingPath}
	default:
		return Decision{Outcome: Render}
	}
}
