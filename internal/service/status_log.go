package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"medisync/internal/model"
	"medisync/internal/repository"
)

const (
	statusLogBuffer    = 100
	statusLogBatchSize = 10
	statusLogInterval  = time.Second
)

// StatusRecorder accepts status changes for the history log.
type StatusRecorder interface {
	Record(ctx context.Context, change model.StatusChange)
}

// StatusLog writes status changes asynchronously in batches.
type StatusLog struct {
	repo   repository.StatusChangeRepository
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan model.StatusChange
	done   chan struct{}
}

// NewStatusLog starts the background writer. Call Close to flush it.
func NewStatusLog(repo repository.StatusChangeRepository, logger zerolog.Logger) *StatusLog {
	l := &StatusLog{
		repo:   repo,
		logger: logger,
		ch:     make(chan model.StatusChange, statusLogBuffer),
		done:   make(chan struct{}),
	}
	go l.worker()
	return l
}

// Record queues a change. When the queue is full or closed the write happens synchronously.
func (l *StatusLog) Record(ctx context.Context, change model.StatusChange) {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}

	l.mu.RLock()
	if !l.closed {
		select {
		case l.ch <- change:
			l.mu.RUnlock()
			return
		default:
		}
	}
	l.mu.RUnlock()

	if err := l.repo.Create(ctx, &change); err != nil {
		l.logger.Error().Err(err).Str("entity_id", change.EntityID).Msg("status history write failed")
	}
}

// Close stops accepting queued writes and flushes what is pending.
func (l *StatusLog) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.ch)
	l.mu.Unlock()
	<-l.done
}

func (l *StatusLog) worker() {
	defer close(l.done)

	ctx := context.Background()
	batch := make([]model.StatusChange, 0, statusLogBatchSize)
	ticker := time.NewTicker(statusLogInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := l.repo.CreateBatch(ctx, batch); err != nil {
			l.logger.Error().Err(err).Int("count", len(batch)).Msg("status history batch failed")
		}
		batch = make([]model.StatusChange, 0, statusLogBatchSize)
	}

	for {
		select {
		case change, ok := <-l.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, change)
			if len(batch) >= statusLogBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
