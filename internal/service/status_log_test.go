package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/model"
	"medisync/internal/repository"
)

// countingHistory wraps a repository and counts batch writes.
type countingHistory struct {
	repository.StatusChangeRepository
	mu      sync.Mutex
	batches int
	singles int
}

func (c *countingHistory) Create(ctx context.Context, change *model.StatusChange) error {
	c.mu.Lock()
	c.singles++
	c.mu.Unlock()
	return c.StatusChangeRepository.Create(ctx, change)
}

func (c *countingHistory) CreateBatch(ctx context.Context, changes []model.StatusChange) error {
	c.mu.Lock()
	c.batches++
	c.mu.Unlock()
	return c.StatusChangeRepository.CreateBatch(ctx, changes)
}

func TestStatusLog_FlushOnClose(t *testing.T) {
	repo := &countingHistory{StatusChangeRepository: repository.NewMemoryStatusChangeRepository()}
	log := NewStatusLog(repo, zerolog.Nop())
	ctx := context.Background()

	for _, to := range []string{"in-progress", "completed", "pending"} {
		log.Record(ctx, model.StatusChange{Entity: model.EntityTask, EntityID: "t1", ToStatus: to})
	}
	log.Close()

	changes, err := repo.ListByEntity(ctx, model.EntityTask, "t1")
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "in-progress", changes[0].ToStatus)
	assert.Equal(t, "pending", changes[2].ToStatus)
	assert.False(t, changes[0].CreatedAt.IsZero())
	assert.Equal(t, 0, repo.singles)
}

func TestStatusLog_BatchesBySize(t *testing.T) {
	repo := &countingHistory{StatusChangeRepository: repository.NewMemoryStatusChangeRepository()}
	log := NewStatusLog(repo, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < statusLogBatchSize*2; i++ {
		log.Record(ctx, model.StatusChange{Entity: model.EntityPatient, EntityID: "p1", ToStatus: "admitted"})
	}
	log.Close()

	changes, err := repo.ListByEntity(ctx, model.EntityPatient, "p1")
	require.NoError(t, err)
	assert.Len(t, changes, statusLogBatchSize*2)
	assert.GreaterOrEqual(t, repo.batches, 2)
}

func TestStatusLog_RecordAfterCloseWritesDirectly(t *testing.T) {
	repo := &countingHistory{StatusChangeRepository: repository.NewMemoryStatusChangeRepository()}
	log := NewStatusLog(repo, zerolog.Nop())
	log.Close()
	log.Close()

	log.Record(context.Background(), model.StatusChange{Entity: model.EntityPatient, EntityID: "p2", ToStatus: "discharged"})

	changes, err := repo.ListByEntity(context.Background(), model.EntityPatient, "p2")
	require.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, 1, repo.singles)
}
