package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the progress of a care task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists the task statuses in display order.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a unit of care work for one patient, assigned to one staff member.
type Task struct {
	Seq            uint64     `json:"-" gorm:"primaryKey;autoIncrement"`
	ID             string     `json:"id" gorm:"type:char(36);uniqueIndex;not null"`
	TaskName       string     `json:"task_name" gorm:"size:255;not null"`
	PatientID      string     `json:"patient_id" gorm:"size:36;not null;index"`
	AssignedToID   string     `json:"assigned_to_id" gorm:"size:36;not null;index"`
	AssignedToName string     `json:"assigned_to_name" gorm:"size:255"`
	Status         TaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate        time.Time  `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BeforeCreate sets the public ID before the record is inserted.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
