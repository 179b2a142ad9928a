package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apperrors "medisync/internal/errors"
)

// ContextKey is where echo-jwt stores the parsed token.
const ContextKey = "user"

// NewClaims is the echo-jwt claims factory.
func NewClaims(echo.Context) jwt.Claims {
	return new(Claims)
}

// ClaimsFromContext returns the claims of the verified bearer token.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}

// RejectRevoked stops requests whose access token was blacklisted at logout.
func RejectRevoked(store TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return next(c)
			}
			revoked, _ := store.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if revoked {
				return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error:    "token has been revoked",
					Code:     "UNAUTHENTICATED",
					Redirect: "/login",
				})
			}
			c.Set("user_id", claims.UserID)
			return next(c)
		}
	}
}
