package repository

import (
	"context"

	"gorm.io/gorm"

	"medisync/internal/model"
)

// TaskRepository defines task persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	ListByPatient(ctx context.Context, patientID string) ([]model.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]model.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// UpdateStatus writes only the status column. A missing id is not an error.
func (r *taskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context) ([]model.Task, error) {
	return r.find(ctx, "", "")
}

func (r *taskRepository) ListByPatient(ctx context.Context, patientID string) ([]model.Task, error) {
	return r.find(ctx, "patient_id = ?", patientID)
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID string) ([]model.Task, error) {
	return r.find(ctx, "assigned_to_id = ?", userID)
}

func (r *taskRepository) find(ctx context.Context, where string, arg string) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Order("seq asc")
	if where != "" {
		q = q.Where(where, arg)
	}
	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
