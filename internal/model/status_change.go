package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity names the kind of record a StatusChange belongs to.
type Entity string

const (
	EntityPatient Entity = "patient"
	EntityTask    Entity = "task"
)

// StatusChange records one status mutation of a patient or task.
// Entries are append-only.
type StatusChange struct {
	Seq        uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	ID         string    `json:"id" gorm:"type:char(36);uniqueIndex;not null"`
	Entity     Entity    `json:"entity" gorm:"type:varchar(16);not null;index:idx_status_change_entity"`
	EntityID   string    `json:"entity_id" gorm:"size:36;not null;index:idx_status_change_entity"`
	FromStatus string    `json:"from_status" gorm:"size:24"`
	ToStatus   string    `json:"to_status" gorm:"size:24;not null"`
	ActorID    string    `json:"actor_id,omitempty" gorm:"size:36"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate sets the public ID before the record is inserted.
func (s *StatusChange) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Identity{},
		&User{},
		&Patient{},
		&Task{},
		&StatusChange{},
	}
}
