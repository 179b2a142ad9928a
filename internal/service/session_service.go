package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/access"
	"medisync/internal/auth"
	apperrors "medisync/internal/errors"
	"medisync/internal/model"
	"medisync/internal/repository"
)

// Tokens is the result of a successful sign-in.
type Tokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         *model.User `json:"user"`
}

// RegisterInput holds the self-registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// SessionService signs staff in and out and restores their session.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Register(ctx context.Context, input RegisterInput) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string, accessClaims *auth.Claims) error
	Current(ctx context.Context, claims *auth.Claims) access.Session
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type sessionService struct {
	identity   auth.IdentityProvider
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	logger     zerolog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	identity auth.IdentityProvider,
	users repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		identity:   identity,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		logger:     logger,
	}
}

// Login authenticates with the identity provider and resolves the directory profile by email.
func (s *sessionService) Login(ctx context.Context, email, password string) (*Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.identity.Authenticate(ctx, email, password); err != nil {
		return nil, apperrors.ErrAuthentication
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error().Err(err).Msg("profile lookup failed during login")
		}
		return nil, apperrors.ErrAuthentication
	}
	return s.issue(ctx, user)
}

// Register creates the identity and the profile, then signs the user in.
func (s *sessionService) Register(ctx context.Context, input RegisterInput) (*Tokens, error) {
	if !input.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrRegistration
	} else if !isNotFound(err) {
		return nil, persistence("check user existence", err)
	}

	identity, err := s.identity.Create(ctx, email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UID:   identity.UID,
		Name:  strings.TrimSpace(input.Name),
		Email: email,
		Role:  input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if delErr := s.identity.Delete(ctx, identity.UID); delErr != nil {
			s.logger.Warn().Err(delErr).Str("uid", identity.UID).Msg("orphaned identity after failed registration")
		}
		return nil, persistence("create user", err)
	}

	return s.issue(ctx, user)
}

func (s *sessionService) issue(ctx context.Context, user *model.User) (*Tokens, error) {
	sessionID := auth.NewSessionID()

	_, accessToken, err := s.jwtService.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshID, refreshToken, err := s.jwtService.GenerateRefreshToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, refreshID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	if err := s.tokenStore.StoreSession(ctx, sessionID, user, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := s.tokenStore.TrackSession(ctx, user.ID, sessionID, refreshID); err != nil {
		return nil, fmt.Errorf("track session: %w", err)
	}

	return &Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(auth.AccessTokenExpiry.Seconds()),
		User:         user,
	}, nil
}

// Refresh validates a refresh token and returns a new access token carrying the
// directory's current profile. A user no longer in the directory cannot refresh.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.ID == "" {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("profile lookup failed during refresh")
		}
		return "", apperrors.ErrInvalidRefreshToken
	}
	s.remember(ctx, claims.SessionID, user)

	_, accessToken, err := s.jwtService.GenerateAccessToken(user, claims.SessionID)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes whatever tokens it is given. Unknown or expired tokens are not an error.
func (s *sessionService) Logout(ctx context.Context, refreshToken string, accessClaims *auth.Claims) error {
	if refreshToken != "" {
		if claims, err := s.jwtService.ValidateToken(refreshToken); err == nil {
			_ = s.tokenStore.DeleteRefreshToken(ctx, claims.ID)
			_ = s.tokenStore.DeleteSession(ctx, claims.SessionID)
		}
	}

	if accessClaims != nil {
		if accessClaims.ExpiresAt != nil {
			if ttl := time.Until(accessClaims.ExpiresAt.Time); ttl > 0 {
				_ = s.tokenStore.BlacklistAccessToken(ctx, accessClaims.ID, ttl)
			}
		}
		_ = s.tokenStore.DeleteSession(ctx, accessClaims.SessionID)
	}
	return nil
}

// Current restores the session profile, from the session store first and the directory second.
func (s *sessionService) Current(ctx context.Context, claims *auth.Claims) access.Session {
	if claims == nil {
		return access.Session{}
	}
	if user, ok := s.tokenStore.GetSession(ctx, claims.SessionID); ok && user.ID == claims.UserID {
		return access.Session{User: user}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return access.Session{Err: apperrors.ErrUserNotFound.Error()}
		}
		s.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("session restore failed")
		return access.Session{Err: "session could not be restored"}
	}

	s.remember(ctx, claims.SessionID, user)
	return access.Session{User: user}
}

// remember caches a freshly loaded profile and keeps the session indexed under its user.
func (s *sessionService) remember(ctx context.Context, sessionID string, user *model.User) {
	_ = s.tokenStore.StoreSession(ctx, sessionID, user, auth.RefreshTokenExpiry)
	_ = s.tokenStore.TrackSession(ctx, user.ID, sessionID, "")
}

func (s *sessionService) ForgotPassword(ctx context.Context, email string) error {
	return s.identity.SendPasswordReset(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *sessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.identity.ResetPassword(ctx, token, newPassword)
}
