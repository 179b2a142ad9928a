package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/auth"
	"medisync/internal/cache"
	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
	"medisync/internal/model"
	"medisync/internal/notify"
	"medisync/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// CreateUserInput provisions a staff account. An empty password sends a reset code instead.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// UpdateUserInput replaces the editable profile fields.
type UpdateUserInput struct {
	Name  string
	Email string
	Role  model.Role
}

// UserService exposes the user directory.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionInvalidator ends or refreshes the sessions a user already holds.
type SessionInvalidator interface {
	DropUserSessions(ctx context.Context, userID string) error
	RevokeUserSessions(ctx context.Context, userID string) error
}

type userService struct {
	repo     repository.UserRepository
	identity auth.IdentityProvider
	mailer   notify.Mailer
	cache    cache.Cache
	sessions SessionInvalidator
	feed     feed.Publisher
	logger   zerolog.Logger
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(
	repo repository.UserRepository,
	identity auth.IdentityProvider,
	mailer notify.Mailer,
	c cache.Cache,
	sessions SessionInvalidator,
	publisher feed.Publisher,
	logger zerolog.Logger,
) UserService {
	return &userService{
		repo:     repo,
		identity: identity,
		mailer:   mailer,
		cache:    c,
		sessions: sessions,
		feed:     publisher,
		logger:   logger,
	}
}

func (s *userService) cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// CreateUser provisions the identity first, then the directory profile.
func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
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
	if err := s.repo.Create(ctx, user); err != nil {
		if delErr := s.identity.Delete(ctx, identity.UID); delErr != nil {
			s.logger.Warn().Err(delErr).Str("uid", identity.UID).Msg("orphaned identity after failed profile create")
		}
		return nil, persistence("create user", err)
	}

	if input.Password == "" {
		s.sendInvite(ctx, user)
	}

	_ = cache.SetJSON(ctx, s.cache, s.cacheKey(user.ID), user, userCacheTTL)
	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.UserCreated, "user", user.ID, user, feed.TopicUsers))
	return user, nil
}

func (s *userService) sendInvite(ctx context.Context, user *model.User) {
	if err := s.mailer.Send(ctx, notify.WelcomeEmail(user.Email, user.Name)); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("welcome email failed")
	}
	if err := s.identity.SendPasswordReset(ctx, user.Email); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("password setup email failed")
	}
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	var cached model.User
	if cache.GetJSON(ctx, s.cache, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, persistence("find user", err)
	}

	_ = cache.SetJSON(ctx, s.cache, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistence("list users", err)
	}
	return users, nil
}

// UpdateUser changes the profile, then mirrors name and email to the identity best-effort.
// Signed-in sessions of the user pick up the new profile, role included, on their next request.
func (s *userService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*model.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	user, err := s.repo.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, persistence("find user", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email != user.Email {
		if other, err := s.repo.FindByEmail(ctx, email); err == nil && other.ID != id {
			return nil, apperrors.ErrRegistration
		}
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Email = email
	user.Role = input.Role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, persistence("update user", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	if err := s.sessions.DropUserSessions(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("cached sessions not dropped")
	}

	if user.UID != "" {
		if err := s.identity.UpdateDisplayName(ctx, user.UID, user.Name); err != nil {
			s.logger.Warn().Err(err).Str("uid", user.UID).Msg("identity display name not updated")
		}
		if err := s.identity.UpdateEmail(ctx, user.UID, user.Email); err != nil {
			s.logger.Warn().Err(err).Str("uid", user.UID).Msg("identity email not updated")
		}
	}

	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.UserUpdated, "user", user.ID, user, feed.TopicUsers))
	return user, nil
}

// DeleteUser removes the profile and ends the user's sessions, then removes the identity
// best-effort. Tasks keep their assignee fields.
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if isNotFound(err) {
		return apperrors.ErrUserNotFound
	}
	if err != nil {
		return persistence("find user", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apperrors.ErrUserNotFound
		}
		return persistence("delete user", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	if err := s.sessions.RevokeUserSessions(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("sessions not revoked")
	}

	if user.UID != "" {
		if err := s.identity.Delete(ctx, user.UID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Str("uid", user.UID).Msg("identity account not removed")
		}
	}

	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.UserDeleted, "user", id, user, feed.TopicUsers))
	return nil
}
