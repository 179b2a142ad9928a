package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies what a staff member may see and do.
type Role string

const (
	RoleDoctor      Role = "doctor"
	RoleNurse       Role = "nurse"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleDoctor, RoleNurse, RoleCoordinator, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RoleNurse, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// User is a staff profile in the user directory.
type User struct {
	Seq       uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	ID        string    `json:"id" gorm:"type:char(36);uniqueIndex;not null"`
	UID       string    `json:"uid,omitempty" gorm:"size:64;index"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets the public ID before the record is inserted.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Identity is an account held by the identity provider. Profiles reference it by UID.
type Identity struct {
	Seq          uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	UID          string    `json:"uid" gorm:"size:64;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	DisplayName  string    `json:"display_name" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate sets the UID before the record is inserted.
func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.UID == "" {
		i.UID = uuid.NewString()
	}
	return nil
}
