package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/model"
	"medisync/internal/repository"
)

func TestDashboardService_Dashboard(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	for _, p := range []model.Patient{
		{Name: "John Doe", Department: model.DepartmentCardiology, IsEmergency: true, Status: model.PatientStatusInTreatment},
		{Name: "Jane Smith", Department: model.DepartmentEmergency, IsEmergency: true, Status: model.PatientStatusAdmitted},
		{Name: "Robert Johnson", Department: model.DepartmentOrthopedics, Status: model.PatientStatusReadyForDischarge},
		{Name: "Emily Davis", Department: model.DepartmentNeurology, Status: model.PatientStatusDischarged},
	} {
		patient := p
		require.NoError(t, store.Patients.Create(ctx, &patient))
	}
	for _, task := range []model.Task{
		{TaskName: "ECG monitoring", AssignedToID: "2", Status: model.TaskStatusPending},
		{TaskName: "Wound dressing", AssignedToID: "2", Status: model.TaskStatusInProgress},
		{TaskName: "Administer medication", AssignedToID: "2", Status: model.TaskStatusPending},
		{TaskName: "MRI scan", AssignedToID: "1", Status: model.TaskStatusCompleted},
	} {
		task := task
		require.NoError(t, store.Tasks.Create(ctx, &task))
	}

	svc := NewDashboardService(store.Patients, store.Tasks)
	dash, err := svc.Dashboard(ctx, &model.User{ID: "2", Role: model.RoleNurse})

	require.NoError(t, err)
	assert.Equal(t, "View and complete your assigned tasks", dash.Welcome)
	assert.Equal(t, DashboardStats{ActivePatients: 3, TotalTasks: 4, EmergencyCases: 2, ReadyForDischarge: 1}, dash.Stats)
	assert.Equal(t, TaskCounts{Pending: 2, InProgress: 1, Completed: 0}, dash.MyTasks)
}

func TestWelcomeMessage(t *testing.T) {
	tests := []struct {
		role     model.Role
		expected string
	}{
		{model.RoleDoctor, "Manage your patients and treatment plans"},
		{model.RoleNurse, "View and complete your assigned tasks"},
		{model.RoleCoordinator, "Optimize patient flow and assignments"},
		{model.RoleAdmin, "Monitor system performance and users"},
		{"visitor", "Welcome to your dashboard"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.expected, WelcomeMessage(tt.role))
		})
	}
}
