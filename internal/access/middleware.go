package access

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "medisync/internal/errors"
)

const sessionKey = "session"

// SetSession stores the resolved session on the request context.
func SetSession(c echo.Context, session Session) {
	c.Set(sessionKey, session)
}

// SessionFrom returns the session resolved for this request. Missing means signed out.
func SessionFrom(c echo.Context) Session {
	session, _ := c.Get(sessionKey).(Session)
	return session
}

// RequireCapability applies Decide to an API route. An empty capability requires only a signed-in user.
func RequireCapability(capability Capability) echo.MiddlewareFunc {
	required := Route{Capability: capability}.Roles()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := Decide(SessionFrom(c), required)
			switch decision.Outcome {
			case RedirectLogin:
				return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error:    "authentication required",
					Code:     "UNAUTHENTICATED",
					Redirect: decision.Redirect,
				})
			case RedirectLanding:
				return c.JSON(http.StatusForbidden, apperrors.ErrorResponse{
					Error:    apperrors.ErrForbidden.Error(),
					Code:     "FORBIDDEN",
					Redirect: decision.Redirect,
				})
			case Wait:
				return c.JSON(http.StatusServiceUnavailable, apperrors.ErrorResponse{
					Error: "session is still loading",
					Code:  "SESSION_LOADING",
				})
			}
			return next(c)
		}
	}
}
