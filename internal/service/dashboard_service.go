package service

import (
	"context"

	"github.com/samber/lo"

	"medisync/internal/model"
	"medisync/internal/repository"
)

// DashboardStats are the hospital-wide counters.
type DashboardStats struct {
	ActivePatients    int `json:"active_patients"`
	TotalTasks        int `json:"total_tasks"`
	EmergencyCases    int `json:"emergency_cases"`
	ReadyForDischarge int `json:"ready_for_discharge"`
}

// TaskCounts are the signed-in user's own tasks by status.
type TaskCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Dashboard is the landing page payload.
type Dashboard struct {
	Welcome string         `json:"welcome"`
	Stats   DashboardStats `json:"stats"`
	MyTasks TaskCounts     `json:"my_tasks"`
}

// DashboardService builds the landing page.
type DashboardService interface {
	Dashboard(ctx context.Context, user *model.User) (*Dashboard, error)
}

type dashboardService struct {
	patients repository.PatientRepository
	tasks    repository.TaskRepository
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(patients repository.PatientRepository, tasks repository.TaskRepository) DashboardService {
	return &dashboardService{patients: patients, tasks: tasks}
}

func (s *dashboardService) Dashboard(ctx context.Context, user *model.User) (*Dashboard, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, persistence("list patients", err)
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, persistence("list tasks", err)
	}
	mine := lo.Filter(tasks, func(t model.Task, _ int) bool { return t.AssignedToID == user.ID })

	return &Dashboard{
		Welcome: WelcomeMessage(user.Role),
		Stats: DashboardStats{
			ActivePatients:    lo.CountBy(patients, func(p model.Patient) bool { return p.Status != model.PatientStatusDischarged }),
			TotalTasks:        len(tasks),
			EmergencyCases:    lo.CountBy(patients, func(p model.Patient) bool { return p.IsEmergency }),
			ReadyForDischarge: lo.CountBy(patients, func(p model.Patient) bool { return p.Status == model.PatientStatusReadyForDischarge }),
		},
		MyTasks: TaskCounts{
			Pending:    lo.CountBy(mine, func(t model.Task) bool { return t.Status == model.TaskStatusPending }),
			InProgress: lo.CountBy(mine, func(t model.Task) bool { return t.Status == model.TaskStatusInProgress }),
			Completed:  lo.CountBy(mine, func(t model.Task) bool { return t.Status == model.TaskStatusCompleted }),
		},
	}, nil
}

// WelcomeMessage is the role-specific dashboard greeting.
func WelcomeMessage(role model.Role) string {
	switch role {
	case model.RoleDoctor:
		return "Manage your patients and treatment plans"
	case model.RoleNurse:
		return "View and complete your assigned tasks"
	case model.RoleCoordinator:
		return "Optimize patient flow and assignments"
	case model.RoleAdmin:
		return "Monitor system performance and users"
	}
	return "Welcome to your dashboard"
}
