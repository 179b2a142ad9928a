package feed

import (
	"context"

	"github.com/rs/zerolog"
)

// Multi fans an event out to several publishers. Delivery failures are logged, never returned.
type Multi struct {
	publishers []Publisher
	logger     zerolog.Logger
}

// NewMulti combines publishers.
func NewMulti(logger zerolog.Logger, publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers, logger: logger}
}

// Publish hands the event to every publisher.
func (m *Multi) Publish(ctx context.Context, event Event) error {
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			m.logger.Warn().Err(err).
				Str("type", event.Type).
				Str("resource_id", event.ResourceID).
				Msg("feed publish failed")
		}
	}
	return nil
}
