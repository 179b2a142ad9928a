package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"medisync/internal/cache"
	"medisync/internal/model"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	accessTokenKeyPrefix  = "blacklist:access_token:"
	sessionKeyPrefix      = "session:"
	resetTokenKeyPrefix   = "password_reset:"
	userSessionsKeyPrefix = "user_sessions:"

	// ResetTokenExpiry bounds how long a password reset code stays usable.
	ResetTokenExpiry = time.Hour
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	StoreSession(ctx context.Context, sessionID string, user *model.User, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*model.User, bool)
	DeleteSession(ctx context.Context, sessionID string) error
	StoreResetToken(ctx context.Context, token, uid string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (uid string, err error)
	TrackSession(ctx context.Context, userID, sessionID, refreshID string) error
	DropUserSessions(ctx context.Context, userID string) error
	RevokeUserSessions(ctx context.Context, userID string) error
}

// TokenStore keeps tokens and session profiles in the cache.
type TokenStore struct {
	cache cache.Cache
	// mu serializes read-modify-write of the per-user session index.
	mu sync.Mutex
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

type sessionRef struct {
	SessionID string `json:"session_id"`
	RefreshID string `json:"refresh_id,omitempty"`
}

type refreshTokenData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// NewTokenStore creates a new token store.
func NewTokenStore(c cache.Cache) *TokenStore {
	return &TokenStore{cache: c}
}

// StoreRefreshToken stores a refresh token with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID, email string, ttl time.Duration) error {
	payload, err := json.Marshal(refreshTokenData{UserID: userID, Email: email})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves refresh token data.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID, email string, err error) {
	var data refreshTokenData
	if !cache.GetJSON(ctx, s.cache, refreshTokenKeyPrefix+tokenID, &data) {
		return "", "", fmt.Errorf("refresh token not found")
	}
	if data.UserID == "" {
		return "", "", fmt.Errorf("invalid user_id in token data")
	}
	return data.UserID, data.Email, nil
}

// DeleteRefreshToken removes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// BlacklistAccessToken adds an access token to the blacklist until it expires.
func (s *TokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.cache.Set(ctx, accessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenBlacklisted checks if an access token is blacklisted.
func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, accessTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // Not blacklisted if error (fail safe)
	}
	return data != nil, nil
}

// StoreSession persists the resolved profile so a restart of the client can restore it.
func (s *TokenStore) StoreSession(ctx context.Context, sessionID string, user *model.User, ttl time.Duration) error {
	return cache.SetJSON(ctx, s.cache, sessionKeyPrefix+sessionID, user, ttl)
}

// GetSession returns the persisted profile for a session, if any.
func (s *TokenStore) GetSession(ctx context.Context, sessionID string) (*model.User, bool) {
	var user model.User
	if !cache.GetJSON(ctx, s.cache, sessionKeyPrefix+sessionID, &user) {
		return nil, false
	}
	return &user, true
}

// DeleteSession drops the persisted profile.
func (s *TokenStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+sessionID)
}

// StoreResetToken records a single-use password reset code for an identity.
func (s *TokenStore) StoreResetToken(ctx context.Context, token, uid string, ttl time.Duration) error {
	return s.cache.Set(ctx, resetTokenKeyPrefix+token, []byte(uid), ttl)
}

// ConsumeResetToken returns the identity a reset code belongs to and invalidates it.
func (s *TokenStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := resetTokenKeyPrefix + token
	data, _ := s.cache.Get(ctx, key)
	if data == nil {
		return "", fmt.Errorf("reset token not found")
	}
	_ = s.cache.Delete(ctx, key)
	return string(data), nil
}

// TrackSession records that a session belongs to a user, so the user's sessions can be
// found again when their profile changes. refreshID may be empty.
func (s *TokenStore) TrackSession(ctx context.Context, userID, sessionID, refreshID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := s.userSessions(ctx, userID)
	kept := make([]sessionRef, 0, len(refs)+1)
	found := false
	for _, ref := range refs {
		if ref.SessionID == sessionID {
			found = true
			if ref.RefreshID == "" {
				ref.RefreshID = refreshID
			}
			kept = append(kept, ref)
			continue
		}
		if s.live(ctx, ref) {
			kept = append(kept, ref)
		}
	}
	if !found {
		kept = append(kept, sessionRef{SessionID: sessionID, RefreshID: refreshID})
	}
	return cache.SetJSON(ctx, s.cache, userSessionsKeyPrefix+userID, kept, RefreshTokenExpiry)
}

// DropUserSessions forgets the cached profile of every session the user holds.
// Refresh tokens stay valid; the next request reloads the profile from the directory.
func (s *TokenStore) DropUserSessions(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, ref := range s.userSessions(ctx, userID) {
		if err := s.cache.Delete(ctx, sessionKeyPrefix+ref.SessionID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RevokeUserSessions ends every session the user holds: cached profiles and refresh tokens.
func (s *TokenStore) RevokeUserSessions(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, ref := range s.userSessions(ctx, userID) {
		keep(s.cache.Delete(ctx, sessionKeyPrefix+ref.SessionID))
		if ref.RefreshID != "" {
			keep(s.cache.Delete(ctx, refreshTokenKeyPrefix+ref.RefreshID))
		}
	}
	keep(s.cache.Delete(ctx, userSessionsKeyPrefix+userID))
	return firstErr
}

func (s *TokenStore) userSessions(ctx context.Context, userID string) []sessionRef {
	var refs []sessionRef
	cache.GetJSON(ctx, s.cache, userSessionsKeyPrefix+userID, &refs)
	return refs
}

// live reports whether anything a session reference points to is still stored.
func (s *TokenStore) live(ctx context.Context, ref sessionRef) bool {
	if data, _ := s.cache.Get(ctx, sessionKeyPrefix+ref.SessionID); data != nil {
		return true
	}
	if ref.RefreshID == "" {
		return false
	}
	data, _ := s.cache.Get(ctx, refreshTokenKeyPrefix+ref.RefreshID)
	return data != nil
}
