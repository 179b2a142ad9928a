package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"medisync/internal/access"
	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
	"medisync/internal/model"
	"medisync/internal/repository"
)

// DateLayout is the wire format of task due dates.
const DateLayout = "2006-01-02"

const unknownAssignee = "Unknown User"

// AssignTaskInput describes a single task. An empty status means pending.
type AssignTaskInput struct {
	TaskName       string
	PatientID      string
	AssignedToID   string
	AssignedToName string
	Status         model.TaskStatus
	DueDate        time.Time
}

// TaskDraft is one row of the assignment form.
type TaskDraft struct {
	TaskName     string `json:"task_name"`
	AssignedToID string `json:"assigned_to_id"`
	DueDate      string `json:"due_date"`
}

// TaskFilter narrows the task list. Search matches task or patient name.
type TaskFilter struct {
	Search string
	Status model.TaskStatus
}

// TaskView is a task with its patient's name, as shown on the task board.
type TaskView struct {
	model.Task
	PatientName string `json:"patient_name"`
}

// TaskGroup is the tasks in one status column.
type TaskGroup struct {
	Status model.TaskStatus `json:"status"`
	Tasks  []TaskView       `json:"tasks"`
}

// TaskService handles task assignment and progress.
type TaskService interface {
	AssignTask(ctx context.Context, input AssignTaskInput) (*model.Task, error)
	AssignTasks(ctx context.Context, patientID string, drafts []TaskDraft) ([]model.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus, actor *model.User) error
	GetPatientTasks(ctx context.Context, patientID string) ([]model.Task, error)
	GetUserTasks(ctx context.Context, userID string) ([]model.Task, error)
	ListTasksFor(ctx context.Context, user *model.User, filter TaskFilter) ([]TaskView, error)
	TemplateDrafts(ctx context.Context, patientID string) ([]TaskDraft, error)
}

type taskService struct {
	tasks    repository.TaskRepository
	patients repository.PatientRepository
	users    repository.UserRepository
	recorder StatusRecorder
	feed     feed.Publisher
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(
	tasks repository.TaskRepository,
	patients repository.PatientRepository,
	users repository.UserRepository,
	recorder StatusRecorder,
	publisher feed.Publisher,
	logger zerolog.Logger,
) TaskService {
	return &taskService{
		tasks:    tasks,
		patients: patients,
		users:    users,
		recorder: recorder,
		feed:     publisher,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *taskService) AssignTask(ctx context.Context, input AssignTaskInput) (*model.Task, error) {
	status := input.Status
	if status == "" {
		status = model.TaskStatusPending
	}
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	task := &model.Task{
		TaskName:       strings.TrimSpace(input.TaskName),
		PatientID:      input.PatientID,
		AssignedToID:   input.AssignedToID,
		AssignedToName: input.AssignedToName,
		Status:         status,
		DueDate:        input.DueDate,
		CreatedAt:      s.now(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, persistence("create task", err)
	}

	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.TaskAssigned, "task", task.ID, task,
		feed.TopicTasks, feed.PatientTasksTopic(task.PatientID), feed.AssigneeTasksTopic(task.AssignedToID)))
	return task, nil
}

// AssignTasks creates one pending task per complete draft. Drafts without a name or assignee are skipped.
// The batch is not transactional: when a write fails, the tasks created before it stay stored
// and are returned alongside the error.
func (s *taskService) AssignTasks(ctx context.Context, patientID string, drafts []TaskDraft) ([]model.Task, error) {
	if _, err := s.patients.FindByID(ctx, patientID); err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrPatientNotFound
		}
		return nil, persistence("find patient", err)
	}

	complete := lo.Filter(drafts, func(d TaskDraft, _ int) bool {
		return strings.TrimSpace(d.TaskName) != "" && strings.TrimSpace(d.AssignedToID) != ""
	})

	inputs := make([]AssignTaskInput, 0, len(complete))
	for _, d := range complete {
		due, err := s.parseDueDate(d.DueDate)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, AssignTaskInput{
			TaskName:       d.TaskName,
			PatientID:      patientID,
			AssignedToID:   d.AssignedToID,
			AssignedToName: s.assigneeName(ctx, d.AssignedToID),
			Status:         model.TaskStatusPending,
			DueDate:        due,
		})
	}

	created := make([]model.Task, 0, len(inputs))
	for _, in := range inputs {
		task, err := s.AssignTask(ctx, in)
		if err != nil {
			return created, err
		}
		created = append(created, *task)
	}
	return created, nil
}

func (s *taskService) parseDueDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		y, m, d := s.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	due, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidDueDate
	}
	return due, nil
}

func (s *taskService) assigneeName(ctx context.Context, userID string) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return unknownAssignee
	}
	return user.Name
}

// UpdateTaskStatus sets a task's status. Unknown ids are ignored. No transition order is enforced.
func (s *taskService) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus, actor *model.User) error {
	if !status.Valid() {
		return apperrors.ErrInvalidStatus
	}

	task, err := s.tasks.FindByID(ctx, id)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return persistence("find task", err)
	}
	if actor != nil && actor.ID != task.AssignedToID && !access.Can(actor.Role, access.UpdateAnyTask) {
		return apperrors.ErrForbidden
	}

	if err := s.tasks.UpdateStatus(ctx, id, status); err != nil {
		return persistence("update task status", err)
	}
	if task.Status == status {
		return nil
	}

	previous := task.Status
	task.Status = status
	s.recorder.Record(ctx, model.StatusChange{
		Entity:     model.EntityTask,
		EntityID:   id,
		FromStatus: string(previous),
		ToStatus:   string(status),
		ActorID:    actorID(actor),
	})
	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.TaskStatusChanged, "task", id, task,
		feed.TopicTasks, feed.PatientTasksTopic(task.PatientID), feed.AssigneeTasksTopic(task.AssignedToID)))
	return nil
}

func (s *taskService) GetPatientTasks(ctx context.Context, patientID string) ([]model.Task, error) {
	tasks, err := s.tasks.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, persistence("list patient tasks", err)
	}
	return tasks, nil
}

func (s *taskService) GetUserTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, persistence("list user tasks", err)
	}
	return tasks, nil
}

// ListTasksFor returns every task for roles that oversee all work, otherwise the user's own.
func (s *taskService) ListTasksFor(ctx context.Context, user *model.User, filter TaskFilter) ([]TaskView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	var (
		tasks []model.Task
		err   error
	)
	if access.Can(user.Role, access.ViewAllTasks) {
		tasks, err = s.tasks.List(ctx)
	} else {
		tasks, err = s.tasks.ListByAssignee(ctx, user.ID)
	}
	if err != nil {
		return nil, persistence("list tasks", err)
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, persistence("list patients", err)
	}
	names := lo.SliceToMap(patients, func(p model.Patient) (string, string) { return p.ID, p.Name })

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		view := TaskView{Task: t, PatientName: names[t.PatientID]}
		if search != "" &&
			!strings.Contains(strings.ToLower(view.TaskName), search) &&
			!strings.Contains(strings.ToLower(view.PatientName), search) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// TemplateDrafts prefills the assignment form from the patient's department.
func (s *taskService) TemplateDrafts(ctx context.Context, patientID string) ([]TaskDraft, error) {
	patient, err := s.patients.FindByID(ctx, patientID)
	if isNotFound(err) {
		return nil, apperrors.ErrPatientNotFound
	}
	if err != nil {
		return nil, persistence("find patient", err)
	}

	today := s.now().Format(DateLayout)
	return lo.Map(TaskTemplate(patient.Department), func(name string, _ int) TaskDraft {
		return TaskDraft{TaskName: name, DueDate: today}
	}), nil
}

// GroupByStatus splits tasks into pending, in-progress and completed columns.
func GroupByStatus(tasks []TaskView) []TaskGroup {
	byStatus := lo.GroupBy(tasks, func(t TaskView) model.TaskStatus { return t.Status })
	return lo.Map(model.TaskStatuses, func(status model.TaskStatus, _ int) TaskGroup {
		members := byStatus[status]
		if members == nil {
			members = []TaskView{}
		}
		return TaskGroup{Status: status, Tasks: members}
	})
}
