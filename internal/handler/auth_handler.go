package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"medisync/internal/access"
	"medisync/internal/auth"
	"medisync/internal/model"
	"medisync/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	sessions   service.SessionService
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions service.SessionService, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{sessions: sessions, jwtService: jwtService}
}

// RegisterRequest represents a staff self-registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=doctor nurse coordinator admin"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request. The access token is taken from the Authorization header when present.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest asks for a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password with a reset code.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresIn    int64       `json:"expires_in,omitempty"`
	User         *model.User `json:"user,omitempty"`
}

// Register godoc
// @Summary Register a new staff member
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tokens, err := h.sessions.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusCreated, toAuthResponse(tokens))
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tokens, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, toAuthResponse(tokens))
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, err := h.sessions.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the refresh token, the bearer access token and the stored session. Always succeeds.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest false "Refresh token"
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	_ = c.Bind(&req)

	var claims *auth.Claims
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if raw := strings.TrimPrefix(header, "Bearer "); raw != "" && raw != header {
		if parsed, err := h.jwtService.ValidateToken(raw); err == nil {
			claims = parsed
		}
	}

	_ = h.sessions.Logout(c.Request().Context(), req.RefreshToken, claims)

	return c.JSON(http.StatusOK, map[string]string{
		"message":  "logged out successfully",
		"redirect": access.LoginPath,
	})
}

// ForgotPassword godoc
// @Summary Send a password reset code
// @Description Responds the same whether or not the address is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account e-mail"
// @Success 202 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.sessions.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "if the address is registered, a reset code has been sent",
	})
}

// ResetPassword godoc
// @Summary Reset password with a reset code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset code and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.sessions.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message":  "password updated",
		"redirect": access.LoginPath,
	})
}

// SessionResponse is the restored session plus what its role may do.
type SessionResponse struct {
	access.Session
	Capabilities []access.Capability `json:"capabilities"`
}

// Session godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	session := access.SessionFrom(c)
	resp := SessionResponse{Session: session, Capabilities: []access.Capability{}}
	if session.User != nil {
		resp.Capabilities = access.Capabilities(session.User.Role)
	}
	return c.JSON(http.StatusOK, resp)
}

func toAuthResponse(tokens *service.Tokens) AuthResponse {
	return AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		User:         tokens.User,
	}
}
