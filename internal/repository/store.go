package repository

import "gorm.io/gorm"

// Store groups the repositories one backend provides.
type Store struct {
	Users         UserRepository
	Identities    IdentityRepository
	Patients      PatientRepository
	Tasks         TaskRepository
	StatusChanges StatusChangeRepository
}

// NewGormStore wires every repository to the same database handle.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		Identities:    NewIdentityRepository(db),
		Patients:      NewPatientRepository(db),
		Tasks:         NewTaskRepository(db),
		StatusChanges: NewStatusChangeRepository(db),
	}
}

// NewMemoryStore returns a store that keeps everything in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Users:         NewMemoryUserRepository(),
		Identities:    NewMemoryIdentityRepository(),
		Patients:      NewMemoryPatientRepository(),
		Tasks:         NewMemoryTaskRepository(),
		StatusChanges: NewMemoryStatusChangeRepository(),
	}
}
