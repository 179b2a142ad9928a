package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"medisync/internal/access"
	"medisync/internal/auth"
	apperrors "medisync/internal/errors"
	"medisync/internal/model"
	"medisync/internal/service"
)

// fail converts a domain error into the JSON error body. The cause is kept for the request log.
func fail(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	})
}

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	}
	return nil
}

func currentUser(c echo.Context) *model.User {
	return access.SessionFrom(c).User
}

// Session resolves the signed-in user's profile for every secured request.
func Session(sessions service.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := auth.ClaimsFromContext(c)
			if !ok {
				access.SetSession(c, access.Session{})
				return next(c)
			}
			access.SetSession(c, sessions.Current(c.Request().Context(), claims))
			return next(c)
		}
	}
}
