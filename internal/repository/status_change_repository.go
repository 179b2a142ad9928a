package repository

import (
	"context"

	"gorm.io/gorm"

	"medisync/internal/model"
)

// StatusChangeRepository defines status history persistence operations.
type StatusChangeRepository interface {
	Create(ctx context.Context, change *model.StatusChange) error
	CreateBatch(ctx context.Context, changes []model.StatusChange) error
	ListByEntity(ctx context.Context, entity model.Entity, entityID string) ([]model.StatusChange, error)
}

type statusChangeRepository struct {
	db *gorm.DB
}

// NewStatusChangeRepository creates a new status change repository.
func NewStatusChangeRepository(db *gorm.DB) StatusChangeRepository {
	return &statusChangeRepository{db: db}
}

// Create creates a single history entry.
func (r *statusChangeRepository) Create(ctx context.Context, change *model.StatusChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

// CreateBatch creates multiple history entries in one round trip.
func (r *statusChangeRepository) CreateBatch(ctx context.Context, changes []model.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(changes, 100).Error
}

// ListByEntity returns the history of one record, oldest first.
func (r *statusChangeRepository) ListByEntity(ctx context.Context, entity model.Entity, entityID string) ([]model.StatusChange, error) {
	var changes []model.StatusChange
	err := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("seq asc").
		Find(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}
