package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"medisync/internal/feed"
	"medisync/internal/model"
	"medisync/internal/notify"
	"medisync/internal/repository"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []feed.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event feed.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// syncRecorder writes history straight to the repository.
type syncRecorder struct {
	repo repository.StatusChangeRepository
}

func (r syncRecorder) Record(ctx context.Context, change model.StatusChange) {
	_ = r.repo.Create(ctx, &change)
}

// MockArchiver is a mock implementation of archive.Archiver.
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) ArchiveDischarge(ctx context.Context, patient model.Patient, tasks []model.Task) error {
	args := m.Called(ctx, patient, tasks)
	return args.Error(0)
}

// captureMailer keeps every e-mail job.
type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Email
}

func (m *captureMailer) Send(_ context.Context, email notify.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

func (m *captureMailer) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, e := range m.sent {
		out = append(out, e.Kind)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedUser(store *repository.Store, id, name string, role model.Role) *model.User {
	user := &model.User{ID: id, Name: name, Email: id + "@example.com", Role: role}
	if err := store.Users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}
