package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"medisync/internal/model"
)

// The memory repositories hold records in insertion order and hand out copies,
// so callers never alias stored state. They return gorm.ErrRecordNotFound on a
// miss to match the GORM-backed implementations.

type memoryUserRepository struct {
	mu    sync.RWMutex
	seq   uint64
	users []model.User
}

// NewMemoryUserRepository returns an in-memory UserRepository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lo.ContainsBy(r.users, func(u model.User) bool { return u.Email == user.Email }) {
		return gorm.ErrDuplicatedKey
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.seq++
	user.Seq = r.seq
	r.users = append(r.users, *user)
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.users, func(u model.User) bool { return u.ID == user.ID })
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if lo.ContainsBy(r.users, func(u model.User) bool { return u.Email == user.Email && u.ID != user.ID }) {
		return gorm.ErrDuplicatedKey
	}
	stored := &r.users[idx]
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Role = user.Role
	stored.UID = user.UID
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.users, func(u model.User) bool { return u.ID == id })
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.users = append(r.users[:idx], r.users[idx+1:]...)
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.findBy(func(u model.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findBy(func(u model.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) findBy(match func(model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := lo.Find(r.users, match)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.User{}, r.users...), nil
}

type memoryIdentityRepository struct {
	mu         sync.RWMutex
	seq        uint64
	identities []model.Identity
}

// NewMemoryIdentityRepository returns an in-memory IdentityRepository.
func NewMemoryIdentityRepository() IdentityRepository {
	return &memoryIdentityRepository{}
}

func (r *memoryIdentityRepository) Create(_ context.Context, identity *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lo.ContainsBy(r.identities, func(i model.Identity) bool { return i.Email == identity.Email }) {
		return gorm.ErrDuplicatedKey
	}
	if identity.UID == "" {
		identity.UID = uuid.NewString()
	}
	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.seq++
	identity.Seq = r.seq
	r.identities = append(r.identities, *identity)
	return nil
}

func (r *memoryIdentityRepository) Update(_ context.Context, identity *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.identities, func(i model.Identity) bool { return i.UID == identity.UID })
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored := &r.identities[idx]
	stored.Email = identity.Email
	stored.PasswordHash = identity.PasswordHash
	stored.DisplayName = identity.DisplayName
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryIdentityRepository) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, idx, ok := lo.FindIndexOf(r.identities, func(i model.Identity) bool { return i.UID == uid })
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.identities = append(r.identities[:idx], r.identities[idx+1:]...)
	return nil
}

func (r *memoryIdentityRepository) FindByUID(_ context.Context, uid string) (*model.Identity, error) {
	return r.findBy(func(i model.Identity) bool { return i.UID == uid })
}

func (r *memoryIdentityRepository) FindByEmail(_ context.Context, email string) (*model.Identity, error) {
	return r.findBy(func(i model.Identity) bool { return i.Email == email })
}

func (r *memoryIdentityRepository) findBy(match func(model.Identity) bool) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := lo.Find(r.identities, match)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &identity, nil
}

type memoryPatientRepository struct {
	mu       sync.RWMutex
	seq      uint64
	patients []model.Patient
}

// NewMemoryPatientRepository returns an in-memory PatientRepository.
func NewMemoryPatientRepository() PatientRepository {
	return &memoryPatientRepository{}
}

func (r *memoryPatientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	r.seq++
	patient.Seq = r.seq
	r.patients = append(r.patients, *patient)
	return nil
}

func (r *memoryPatientRepository) UpdateStatus(_ context.Context, id string, status model.PatientStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, idx, ok := lo.FindIndexOf(r.patients, func(p model.Patient) bool { return p.ID == id }); ok {
		r.patients[idx].Status = status
	}
	return nil
}

func (r *memoryPatientRepository) FindByID(_ context.Context, id string) (*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := lo.Find(r.patients, func(p model.Patient) bool { return p.ID == id })
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &patient, nil
}

func (r *memoryPatientRepository) List(_ context.Context) ([]model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Patient{}, r.patients...), nil
}

type memoryTaskRepository struct {
	mu    sync.RWMutex
	seq   uint64
	tasks []model.Task
}

// NewMemoryTaskRepository returns an in-memory TaskRepository.
func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{}
}

func (r *memoryTaskRepository) Create(_ context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	r.seq++
	task.Seq = r.seq
	r.tasks = append(r.tasks, *task)
	return nil
}

func (r *memoryTaskRepository) UpdateStatus(_ context.Context, id string, status model.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, idx, ok := lo.FindIndexOf(r.tasks, func(t model.Task) bool { return t.ID == id }); ok {
		r.tasks[idx].Status = status
	}
	return nil
}

func (r *memoryTaskRepository) FindByID(_ context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := lo.Find(r.tasks, func(t model.Task) bool { return t.ID == id })
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &task, nil
}

func (r *memoryTaskRepository) List(_ context.Context) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Task{}, r.tasks...), nil
}

func (r *memoryTaskRepository) ListByPatient(_ context.Context, patientID string) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(r.tasks, func(t model.Task, _ int) bool { return t.PatientID == patientID }), nil
}

func (r *memoryTaskRepository) ListByAssignee(_ context.Context, userID string) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(r.tasks, func(t model.Task, _ int) bool { return t.AssignedToID == userID }), nil
}

type memoryStatusChangeRepository struct {
	mu      sync.RWMutex
	seq     uint64
	changes []model.StatusChange
}

// NewMemoryStatusChangeRepository returns an in-memory StatusChangeRepository.
func NewMemoryStatusChangeRepository() StatusChangeRepository {
	return &memoryStatusChangeRepository{}
}

func (r *memoryStatusChangeRepository) Create(_ context.Context, change *model.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(change)
	return nil
}

func (r *memoryStatusChangeRepository) CreateBatch(_ context.Context, changes []model.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range changes {
		r.append(&changes[i])
	}
	return nil
}

func (r *memoryStatusChangeRepository) append(change *model.StatusChange) {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}
	r.seq++
	change.Seq = r.seq
	r.changes = append(r.changes, *change)
}

func (r *memoryStatusChangeRepository) ListByEntity(_ context.Context, entity model.Entity, entityID string) ([]model.StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(r.changes, func(c model.StatusChange, _ int) bool {
		return c.Entity == entity && c.EntityID == entityID
	}), nil
}
