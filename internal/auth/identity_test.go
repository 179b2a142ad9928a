package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"medisync/internal/cache"
	apperrors "medisync/internal/errors"
	"medisync/internal/notify"
	"medisync/internal/repository"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email notify.Email) error {
	return m.Called(ctx, email).Error(0)
}

func newProvider(mailer notify.Mailer) IdentityProvider {
	return NewLocalProvider(repository.NewMemoryIdentityRepository(), NewTokenStore(cache.NewMemory()), mailer)
}

func TestLocalProvider_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	p := newProvider(new(MockMailer))

	identity, err := p.Create(ctx, "nurse@example.com", "password123", "Nurse Alex Johnson")
	require.NoError(t, err)
	assert.NotEmpty(t, identity.UID)
	assert.NotEqual(t, "password123", identity.PasswordHash)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "nurse@example.com", password: "password123"},
		{name: "wrong password", email: "nurse@example.com", password: "nope", wantErr: apperrors.ErrAuthentication},
		{name: "unknown email", email: "ghost@example.com", password: "password123", wantErr: apperrors.ErrAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, identity.UID, got.UID)
		})
	}

	_, err = p.Create(ctx, "nurse@example.com", "other", "Someone")
	assert.ErrorIs(t, err, apperrors.ErrRegistration)
}

func TestLocalProvider_PasswordReset(t *testing.T) {
	ctx := context.Background()
	mailer := new(MockMailer)
	var sent notify.Email
	mailer.On("Send", mock.Anything, mock.AnythingOfType("notify.Email")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(notify.Email) }).
		Return(nil).Once()

	repo := repository.NewMemoryIdentityRepository()
	tokens := NewTokenStore(cache.NewMemory())
	p := NewLocalProvider(repo, tokens, mailer)

	_, err := p.Create(ctx, "doctor@example.com", "old-password", "Dr. Jane Smith")
	require.NoError(t, err)

	// unknown addresses do not reveal anything
	require.NoError(t, p.SendPasswordReset(ctx, "ghost@example.com"))

	require.NoError(t, p.SendPasswordReset(ctx, "doctor@example.com"))
	mailer.AssertExpectations(t)
	assert.Equal(t, "doctor@example.com", sent.To)
	assert.Equal(t, "password_reset", sent.Kind)

	identity, err := repo.FindByEmail(ctx, "doctor@example.com")
	require.NoError(t, err)
	var code string
	_, err = fmt.Sscanf(sent.Body, "Use this code to reset your password: %s", &code)
	require.NoError(t, err)
	uid, err := tokens.ConsumeResetToken(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, identity.UID, uid)

	// consumed codes cannot be used again
	assert.ErrorIs(t, p.ResetPassword(ctx, code, "new-password"), apperrors.ErrInvalidResetToken)
}

func TestLocalProvider_ResetPassword(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIdentityRepository()
	tokens := NewTokenStore(cache.NewMemory())
	p := NewLocalProvider(repo, tokens, new(MockMailer))

	identity, err := p.Create(ctx, "coordinator@example.com", "old-password", "Sam Coordinator")
	require.NoError(t, err)
	require.NoError(t, tokens.StoreResetToken(ctx, "code-1", identity.UID, ResetTokenExpiry))

	require.NoError(t, p.ResetPassword(ctx, "code-1", "new-password"))

	_, err = p.Authenticate(ctx, "coordinator@example.com", "old-password")
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	_, err = p.Authenticate(ctx, "coordinator@example.com", "new-password")
	assert.NoError(t, err)
}

func TestLocalProvider_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIdentityRepository()
	p := NewLocalProvider(repo, NewTokenStore(cache.NewMemory()), new(MockMailer))

	identity, err := p.Create(ctx, "admin@example.com", "", "Admin User")
	require.NoError(t, err)

	require.NoError(t, p.UpdateDisplayName(ctx, identity.UID, "Administrator"))
	stored, err := repo.FindByUID(ctx, identity.UID)
	require.NoError(t, err)
	assert.Equal(t, "Administrator", stored.DisplayName)

	require.NoError(t, p.UpdateEmail(ctx, identity.UID, "root@example.com"))
	_, err = p.Authenticate(ctx, "root@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	_, err = repo.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, identity.UID))
	assert.Error(t, p.Delete(ctx, identity.UID))
}
