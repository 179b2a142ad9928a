package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
	"medisync/internal/model"
	"medisync/internal/repository"
)

type taskFixture struct {
	svc     *taskService
	store   *repository.Store
	pub     *recordingPublisher
	patient *model.Patient
	doctor  *model.User
	nurse   *model.User
	coord   *model.User
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewTaskService(store.Tasks, store.Patients, store.Users,
		syncRecorder{repo: store.StatusChanges}, pub, zerolog.Nop()).(*taskService)
	svc.now = fixedClock(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))

	patient := &model.Patient{Name: "John Doe", Age: 45, Symptoms: "Chest pain", Department: model.DepartmentCardiology, Status: model.PatientStatusAdmitted}
	require.NoError(t, store.Patients.Create(context.Background(), patient))

	return &taskFixture{
		svc:     svc,
		store:   store,
		pub:     pub,
		patient: patient,
		doctor:  seedUser(store, "1", "Dr. Sarah Johnson", model.RoleDoctor),
		nurse:   seedUser(store, "2", "Nurse Michael Chen", model.RoleNurse),
		coord:   seedUser(store, "3", "Emma Rodriguez", model.RoleCoordinator),
	}
}

func TestTaskService_AssignTasks(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.AssignTasks(ctx, f.patient.ID, []TaskDraft{
		{TaskName: "ECG monitoring", AssignedToID: "2", DueDate: "2024-01-01"},
		{TaskName: "Blood pressure check", AssignedToID: "", DueDate: "2024-01-01"},
		{TaskName: "  ", AssignedToID: "2"},
		{TaskName: "Cardiac enzyme test", AssignedToID: "ghost"},
	})

	require.NoError(t, err)
	require.Len(t, created, 2)

	ecg := created[0]
	assert.Equal(t, "ECG monitoring", ecg.TaskName)
	assert.Equal(t, f.patient.ID, ecg.PatientID)
	assert.Equal(t, "2", ecg.AssignedToID)
	assert.Equal(t, "Nurse Michael Chen", ecg.AssignedToName)
	assert.Equal(t, model.TaskStatusPending, ecg.Status)
	assert.Equal(t, "2024-01-01", ecg.DueDate.Format(DateLayout))

	unknown := created[1]
	assert.Equal(t, "Unknown User", unknown.AssignedToName)
	assert.Equal(t, "2024-03-15", unknown.DueDate.Format(DateLayout))

	tasks, err := f.svc.GetPatientTasks(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	assert.Equal(t, []string{feed.TaskAssigned, feed.TaskAssigned}, f.pub.types())
	assert.Contains(t, f.pub.events[0].Topics, feed.AssigneeTasksTopic("2"))
	assert.Contains(t, f.pub.events[0].Topics, feed.PatientTasksTopic(f.patient.ID))
}

func TestTaskService_AssignTasksErrors(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.svc.AssignTasks(ctx, "missing", []TaskDraft{{TaskName: "ECG monitoring", AssignedToID: "2"}})
	assert.ErrorIs(t, err, apperrors.ErrPatientNotFound)

	_, err = f.svc.AssignTasks(ctx, f.patient.ID, []TaskDraft{{TaskName: "ECG monitoring", AssignedToID: "2", DueDate: "01/02/2024"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDueDate)

	tasks, err := f.svc.GetPatientTasks(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// flakyTaskRepository fails every Create after the first n.
type flakyTaskRepository struct {
	repository.TaskRepository
	n int
}

func (r *flakyTaskRepository) Create(ctx context.Context, task *model.Task) error {
	if r.n == 0 {
		return assert.AnError
	}
	r.n--
	return r.TaskRepository.Create(ctx, task)
}

func TestTaskService_AssignTasksPartialFailure(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	f.svc.tasks = &flakyTaskRepository{TaskRepository: f.store.Tasks, n: 1}

	created, err := f.svc.AssignTasks(ctx, f.patient.ID, []TaskDraft{
		{TaskName: "ECG monitoring", AssignedToID: "2"},
		{TaskName: "Blood pressure check", AssignedToID: "2"},
		{TaskName: "Cardiac enzyme test", AssignedToID: "2"},
	})

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	require.Len(t, created, 1)
	assert.Equal(t, "ECG monitoring", created[0].TaskName)

	stored, err := f.store.Tasks.ListByPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, created[0].ID, stored[0].ID)
}

func TestTaskService_UpdateTaskStatus(t *testing.T) {
	tests := []struct {
		name          string
		actor         func(*taskFixture) *model.User
		from          model.TaskStatus
		to            model.TaskStatus
		unknownID     bool
		expectedError error
		expectStatus  model.TaskStatus
		expectEvent   bool
	}{
		{
			name:         "assignee starts task",
			actor:        func(f *taskFixture) *model.User { return f.nurse },
			from:         model.TaskStatusPending,
			to:           model.TaskStatusInProgress,
			expectStatus: model.TaskStatusInProgress,
			expectEvent:  true,
		},
		{
			name:         "completed back to pending is allowed",
			actor:        func(f *taskFixture) *model.User { return f.nurse },
			from:         model.TaskStatusCompleted,
			to:           model.TaskStatusPending,
			expectStatus: model.TaskStatusPending,
			expectEvent:  true,
		},
		{
			name:         "coordinator updates any task",
			actor:        func(f *taskFixture) *model.User { return f.coord },
			from:         model.TaskStatusPending,
			to:           model.TaskStatusCompleted,
			expectStatus: model.TaskStatusCompleted,
			expectEvent:  true,
		},
		{
			name:          "other nurse is forbidden",
			actor:         func(f *taskFixture) *model.User { return &model.User{ID: "9", Role: model.RoleNurse} },
			from:          model.TaskStatusPending,
			to:            model.TaskStatusCompleted,
			expectedError: apperrors.ErrForbidden,
			expectStatus:  model.TaskStatusPending,
		},
		{
			name:         "unknown task is ignored",
			actor:        func(f *taskFixture) *model.User { return f.nurse },
			from:         model.TaskStatusPending,
			to:           model.TaskStatusCompleted,
			unknownID:    true,
			expectStatus: model.TaskStatusPending,
		},
		{
			name:          "invalid status",
			actor:         func(f *taskFixture) *model.User { return f.nurse },
			from:          model.TaskStatusPending,
			to:            "done",
			expectedError: apperrors.ErrInvalidStatus,
			expectStatus:  model.TaskStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture(t)
			ctx := context.Background()
			task, err := f.svc.AssignTask(ctx, AssignTaskInput{
				TaskName:     "ECG monitoring",
				PatientID:    f.patient.ID,
				AssignedToID: f.nurse.ID,
				Status:       tt.from,
			})
			require.NoError(t, err)
			f.pub.events = nil

			id := task.ID
			if tt.unknownID {
				id = "missing"
			}
			err = f.svc.UpdateTaskStatus(ctx, id, tt.to, tt.actor(f))

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			stored, err := f.store.Tasks.FindByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.expectStatus, stored.Status)

			history, err := f.store.StatusChanges.ListByEntity(ctx, model.EntityTask, task.ID)
			require.NoError(t, err)
			if tt.expectEvent {
				assert.Equal(t, []string{feed.TaskStatusChanged}, f.pub.types())
				require.Len(t, history, 1)
				assert.Equal(t, string(tt.from), history[0].FromStatus)
				assert.Equal(t, tt.actor(f).ID, history[0].ActorID)
			} else {
				assert.Empty(t, f.pub.events)
				assert.Empty(t, history)
			}
		})
	}
}

func TestTaskService_ListTasksFor(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	for _, in := range []AssignTaskInput{
		{TaskName: "ECG monitoring", PatientID: f.patient.ID, AssignedToID: f.nurse.ID},
		{TaskName: "Review scan", PatientID: f.patient.ID, AssignedToID: f.doctor.ID, Status: model.TaskStatusInProgress},
		{TaskName: "Discharge paperwork", PatientID: f.patient.ID, AssignedToID: f.coord.ID, Status: model.TaskStatusCompleted},
	} {
		_, err := f.svc.AssignTask(ctx, in)
		require.NoError(t, err)
	}

	own, err := f.svc.ListTasksFor(ctx, f.nurse, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "ECG monitoring", own[0].TaskName)
	assert.Equal(t, "John Doe", own[0].PatientName)

	all, err := f.svc.ListTasksFor(ctx, f.coord, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byPatient, err := f.svc.ListTasksFor(ctx, f.coord, TaskFilter{Search: "john"})
	require.NoError(t, err)
	assert.Len(t, byPatient, 3)

	byStatus, err := f.svc.ListTasksFor(ctx, f.coord, TaskFilter{Status: model.TaskStatusCompleted})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Discharge paperwork", byStatus[0].TaskName)

	groups := GroupByStatus(all)
	require.Len(t, groups, 3)
	assert.Equal(t, model.TaskStatusPending, groups[0].Status)
	assert.Len(t, groups[0].Tasks, 1)
	assert.Len(t, groups[1].Tasks, 1)
	assert.Len(t, groups[2].Tasks, 1)

	mine, err := f.svc.GetUserTasks(ctx, f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Review scan", mine[0].TaskName)
}

func TestTaskService_TemplateDrafts(t *testing.T) {
	f := newTaskFixture(t)

	drafts, err := f.svc.TemplateDrafts(context.Background(), f.patient.ID)

	require.NoError(t, err)
	require.Len(t, drafts, len(TaskTemplate(model.DepartmentCardiology)))
	assert.Equal(t, "ECG monitoring", drafts[0].TaskName)
	for _, d := range drafts {
		assert.Empty(t, d.AssignedToID)
		assert.Equal(t, "2024-03-15", d.DueDate)
	}

	_, err = f.svc.TemplateDrafts(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrPatientNotFound)
}
