package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"medisync/internal/model"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	// It is also the lifetime of the persisted session.
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

// Claims represents JWT claims. SessionID ties access and refresh tokens of one login together.
type Claims struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	SessionID string     `json:"sid"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Secret returns the signing key, for the echo-jwt middleware.
func (s *JWTService) Secret() []byte {
	return s.secret
}

// GenerateAccessToken issues a short-lived token for the user within a session.
func (s *JWTService) GenerateAccessToken(user *model.User, sessionID string) (tokenID string, token string, err error) {
	return s.sign(user, sessionID, AccessTokenExpiry)
}

// GenerateRefreshToken issues a long-lived token. Its ID is stored in redis.
func (s *JWTService) GenerateRefreshToken(user *model.User, sessionID string) (tokenID string, token string, err error) {
	return s.sign(user, sessionID, RefreshTokenExpiry)
}

func (s *JWTService) sign(user *model.User, sessionID string, ttl time.Duration) (string, string, error) {
	now := s.now()
	tokenID := generateTokenID()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tokenID, token, err
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return generateTokenID()
}

func generateTokenID() string {
	return uuid.New().String()
}
