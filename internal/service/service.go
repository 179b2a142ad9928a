package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
)

// persistence wraps a store failure so handlers map it to PERSISTENCE_ERROR.
func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrPersistence, op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// publish delivers a change notification. Failures never fail the write that caused it.
func publish(ctx context.Context, pub feed.Publisher, logger zerolog.Logger, event feed.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("type", event.Type).Str("resource_id", event.ResourceID).Msg("change notification failed")
	}
}
