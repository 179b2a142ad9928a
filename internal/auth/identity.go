package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "medisync/internal/errors"
	"medisync/internal/model"
	"medisync/internal/notify"
	"medisync/internal/repository"
)

const bcryptCost = 10

// IdentityProvider owns credentials. Profiles live in the user directory and reference identities by UID.
type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
	Create(ctx context.Context, email, password, displayName string) (*model.Identity, error)
	Delete(ctx context.Context, uid string) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	UpdateEmail(ctx context.Context, uid, email string) error
	SendPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type localProvider struct {
	repo   repository.IdentityRepository
	tokens TokenStoreInterface
	mailer notify.Mailer
}

// NewLocalProvider stores bcrypt-hashed credentials through the identity repository.
func NewLocalProvider(repo repository.IdentityRepository, tokens TokenStoreInterface, mailer notify.Mailer) IdentityProvider {
	return &localProvider{repo: repo, tokens: tokens, mailer: mailer}
}

// Authenticate verifies the password. Unknown emails and wrong passwords are indistinguishable.
func (p *localProvider) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	identity, err := p.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrAuthentication
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrAuthentication
	}
	return identity, nil
}

// Create provisions a new identity. An empty password gets a random one.
func (p *localProvider) Create(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	existing, err := p.repo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrRegistration
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check identity existence: %w", err)
	}

	if password == "" {
		if password, err = RandomToken(); err != nil {
			return nil, err
		}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := &model.Identity{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  displayName,
	}
	if err := p.repo.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return identity, nil
}

func (p *localProvider) Delete(ctx context.Context, uid string) error {
	if err := p.repo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete identity %s: %w", uid, err)
	}
	return nil
}

func (p *localProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	identity, err := p.repo.FindByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("find identity %s: %w", uid, err)
	}
	identity.DisplayName = displayName
	return p.repo.Update(ctx, identity)
}

func (p *localProvider) UpdateEmail(ctx context.Context, uid, email string) error {
	identity, err := p.repo.FindByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("find identity %s: %w", uid, err)
	}
	if identity.Email == email {
		return nil
	}
	if taken, err := p.repo.FindByEmail(ctx, email); err == nil && taken.UID != uid {
		return apperrors.ErrRegistration
	}
	identity.Email = email
	return p.repo.Update(ctx, identity)
}

// SendPasswordReset issues a reset code and queues the e-mail. Unknown addresses succeed silently.
func (p *localProvider) SendPasswordReset(ctx context.Context, email string) error {
	identity, err := p.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find identity: %w", err)
	}

	token, err := RandomToken()
	if err != nil {
		return err
	}
	if err := p.tokens.StoreResetToken(ctx, token, identity.UID, ResetTokenExpiry); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return p.mailer.Send(ctx, notify.PasswordResetEmail(identity.Email, token))
}

func (p *localProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	uid, err := p.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		return apperrors.ErrInvalidResetToken
	}
	identity, err := p.repo.FindByUID(ctx, uid)
	if err != nil {
		return apperrors.ErrInvalidResetToken
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	identity.PasswordHash = string(hashed)
	if err := p.repo.Update(ctx, identity); err != nil {
		return fmt.Errorf("%w: update identity: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// RandomToken returns 32 hex characters from crypto/rand.
func RandomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
