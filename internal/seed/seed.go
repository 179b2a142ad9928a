package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"medisync/internal/auth"
	apperrors "medisync/internal/errors"
	"medisync/internal/model"
	"medisync/internal/repository"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

var demoUsers = []model.User{
	{ID: "1", Name: "Dr. Jane Smith", Email: "doctor@example.com", Role: model.RoleDoctor},
	{ID: "2", Name: "Nurse Alex Johnson", Email: "nurse@example.com", Role: model.RoleNurse},
	{ID: "3", Name: "Sam Coordinator", Email: "coordinator@example.com", Role: model.RoleCoordinator},
	{ID: "4", Name: "Admin User", Email: "admin@example.com", Role: model.RoleAdmin},
}

var demoPatients = []model.Patient{
	{
		ID: "p1", Name: "John Doe", Age: 45, Symptoms: "Chest pain, shortness of breath", IsEmergency: true,
		RoomNo: "ER-3", Department: model.DepartmentCardiology, Diagnosis: "Suspected myocardial infarction",
		AddedByID: "1", AddedByName: "Dr. Jane Smith", AdmittedDate: at("2023-04-15T08:30:00Z"), Status: model.PatientStatusInTreatment,
	},
	{
		ID: "p2", Name: "Emily Johnson", Age: 32, Symptoms: "Severe headache, dizziness",
		RoomNo: "301", Department: model.DepartmentNeurology, Diagnosis: "Migraine",
		AddedByID: "1", AddedByName: "Dr. Jane Smith", AdmittedDate: at("2023-04-14T15:20:00Z"), Status: model.PatientStatusReadyForDischarge,
	},
	{
		ID: "p3", Name: "Michael Wilson", Age: 28, Symptoms: "Fractured arm, abrasions", IsEmergency: true,
		RoomNo: "ER-5", Department: model.DepartmentOrthopedics, Diagnosis: "Compound fracture",
		AddedByID: "1", AddedByName: "Dr. Jane Smith", AdmittedDate: at("2023-04-16T10:15:00Z"), Status: model.PatientStatusAdmitted,
	},
	{
		ID: "p4", Name: "Sarah Miller", Age: 67, Symptoms: "Fever, cough, fatigue",
		RoomNo: "205", Department: model.DepartmentGeneral, Diagnosis: "Pneumonia",
		AddedByID: "1", AddedByName: "Dr. Jane Smith", AdmittedDate: at("2023-04-13T09:45:00Z"), Status: model.PatientStatusInTreatment,
	},
}

var demoTasks = []model.Task{
	{ID: "t1", TaskName: "Administer medication", PatientID: "p1", AssignedToID: "2", AssignedToName: "Nurse Alex Johnson",
		Status: model.TaskStatusPending, DueDate: at("2023-04-16T10:00:00Z"), CreatedAt: at("2023-04-15T09:00:00Z")},
	{ID: "t2", TaskName: "Change dressing", PatientID: "p3", AssignedToID: "2", AssignedToName: "Nurse Alex Johnson",
		Status: model.TaskStatusInProgress, DueDate: at("2023-04-16T11:30:00Z"), CreatedAt: at("2023-04-16T10:30:00Z")},
	{ID: "t3", TaskName: "Complete discharge paperwork", PatientID: "p2", AssignedToID: "1", AssignedToName: "Dr. Jane Smith",
		Status: model.TaskStatusPending, DueDate: at("2023-04-16T14:00:00Z"), CreatedAt: at("2023-04-15T16:00:00Z")},
	{ID: "t4", TaskName: "Review test results", PatientID: "p4", AssignedToID: "1", AssignedToName: "Dr. Jane Smith",
		Status: model.TaskStatusCompleted, DueDate: at("2023-04-15T15:00:00Z"), CreatedAt: at("2023-04-14T10:00:00Z")},
}

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

// Result counts what a run inserted.
type Result struct {
	Users    int
	Patients int
	Tasks    int
}

// Run loads the demo data. Records that already exist are skipped, so it can be re-run.
func Run(ctx context.Context, store *repository.Store, idp auth.IdentityProvider, logger zerolog.Logger) (Result, error) {
	var res Result

	for _, u := range demoUsers {
		if _, err := store.Users.FindByEmail(ctx, u.Email); err == nil {
			logger.Debug().Str("email", u.Email).Msg("demo user exists, skipping")
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return res, fmt.Errorf("find user %s: %w", u.Email, err)
		}

		identity, err := idp.Create(ctx, u.Email, DemoPassword, u.Name)
		if err != nil && !errors.Is(err, apperrors.ErrRegistration) {
			return res, fmt.Errorf("create identity %s: %w", u.Email, err)
		}
		user := u
		if identity != nil {
			user.UID = identity.UID
		}
		if err := store.Users.Create(ctx, &user); err != nil {
			return res, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		res.Users++
	}

	for _, p := range demoPatients {
		if _, err := store.Patients.FindByID(ctx, p.ID); err == nil {
			continue
		}
		patient := p
		if err := store.Patients.Create(ctx, &patient); err != nil {
			return res, fmt.Errorf("create patient %s: %w", p.ID, err)
		}
		res.Patients++
	}

	for _, t := range demoTasks {
		if _, err := store.Tasks.FindByID(ctx, t.ID); err == nil {
			continue
		}
		task := t
		if err := store.Tasks.Create(ctx, &task); err != nil {
			return res, fmt.Errorf("create task %s: %w", t.ID, err)
		}
		res.Tasks++
	}

	logger.Info().Int("users", res.Users).Int("patients", res.Patients).Int("tasks", res.Tasks).Msg("demo data loaded")
	return res, nil
}
