package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"medisync/internal/archive"
	apperrors "medisync/internal/errors"
	"medisync/internal/feed"
	"medisync/internal/model"
	"medisync/internal/repository"
)

// AddPatientInput holds the intake form fields.
type AddPatientInput struct {
	Name        string
	Age         int
	Symptoms    string
	IsEmergency bool
	RoomNo      string
	Department  model.Department
	Diagnosis   string
}

// PatientFilter narrows the patient list. Empty fields match everything.
type PatientFilter struct {
	Search     string
	Status     model.PatientStatus
	Department model.Department
}

// DepartmentGroup is the patients of one department.
type DepartmentGroup struct {
	Department model.Department `json:"department"`
	Label      string           `json:"label"`
	Patients   []model.Patient  `json:"patients"`
}

// PatientService handles intake and status tracking.
type PatientService interface {
	AddPatient(ctx context.Context, input AddPatientInput, addedBy *model.User) (*model.Patient, error)
	UpdatePatientStatus(ctx context.Context, id string, status model.PatientStatus, actor *model.User) error
	GetPatientByID(ctx context.Context, id string) (*model.Patient, error)
	ListPatients(ctx context.Context, filter PatientFilter) ([]model.Patient, error)
	PatientHistory(ctx context.Context, id string) ([]model.StatusChange, error)
}

type patientService struct {
	patients repository.PatientRepository
	tasks    repository.TaskRepository
	history  repository.StatusChangeRepository
	recorder StatusRecorder
	feed     feed.Publisher
	archiver archive.Archiver
	logger   zerolog.Logger
	now      func() time.Time
}

// NewPatientService creates a new patient service.
func NewPatientService(
	patients repository.PatientRepository,
	tasks repository.TaskRepository,
	history repository.StatusChangeRepository,
	recorder StatusRecorder,
	publisher feed.Publisher,
	archiver archive.Archiver,
	logger zerolog.Logger,
) PatientService {
	return &patientService{
		patients: patients,
		tasks:    tasks,
		history:  history,
		recorder: recorder,
		feed:     publisher,
		archiver: archiver,
		logger:   logger,
		now:      time.Now,
	}
}

// AddPatient admits a patient. There is no duplicate detection.
func (s *patientService) AddPatient(ctx context.Context, input AddPatientInput, addedBy *model.User) (*model.Patient, error) {
	if !input.Department.Valid() {
		return nil, apperrors.ErrInvalidDepartment
	}

	patient := &model.Patient{
		Name:         strings.TrimSpace(input.Name),
		Age:          input.Age,
		Symptoms:     input.Symptoms,
		IsEmergency:  input.IsEmergency,
		RoomNo:       input.RoomNo,
		Department:   input.Department,
		Diagnosis:    input.Diagnosis,
		AdmittedDate: s.now(),
		Status:       model.PatientStatusAdmitted,
	}
	if addedBy != nil {
		patient.AddedByID = addedBy.ID
		patient.AddedByName = addedBy.Name
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, persistence("create patient", err)
	}

	s.logger.Info().Str("patient_id", patient.ID).Str("department", string(patient.Department)).Bool("emergency", patient.IsEmergency).Msg("patient admitted")
	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.PatientCreated, "patient", patient.ID, patient,
		feed.TopicPatients, feed.PatientTopic(patient.ID)))
	return patient, nil
}

// UpdatePatientStatus sets the status of an existing patient. Unknown ids are ignored.
func (s *patientService) UpdatePatientStatus(ctx context.Context, id string, status model.PatientStatus, actor *model.User) error {
	if !status.Valid() {
		return apperrors.ErrInvalidStatus
	}

	patient, err := s.patients.FindByID(ctx, id)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return persistence("find patient", err)
	}

	if err := s.patients.UpdateStatus(ctx, id, status); err != nil {
		return persistence("update patient status", err)
	}
	if patient.Status == status {
		return nil
	}

	previous := patient.Status
	patient.Status = status
	s.recorder.Record(ctx, model.StatusChange{
		Entity:     model.EntityPatient,
		EntityID:   id,
		FromStatus: string(previous),
		ToStatus:   string(status),
		ActorID:    actorID(actor),
	})
	publish(ctx, s.feed, s.logger, feed.NewEvent(feed.PatientStatusChanged, "patient", id, patient,
		feed.TopicPatients, feed.PatientTopic(id)))

	if status == model.PatientStatusDischarged {
		s.archive(ctx, *patient)
	}
	return nil
}

func (s *patientService) archive(ctx context.Context, patient model.Patient) {
	tasks, err := s.tasks.ListByPatient(ctx, patient.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patient.ID).Msg("discharge archive skipped")
		return
	}
	if err := s.archiver.ArchiveDischarge(ctx, patient, tasks); err != nil {
		s.logger.Error().Err(err).Str("patient_id", patient.ID).Msg("discharge archive failed")
	}
}

func (s *patientService) GetPatientByID(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.patients.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, apperrors.ErrPatientNotFound
	}
	if err != nil {
		return nil, persistence("find patient", err)
	}
	return patient, nil
}

// ListPatients returns matching patients in admission order.
func (s *patientService) ListPatients(ctx context.Context, filter PatientFilter) ([]model.Patient, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if filter.Department != "" && !filter.Department.Valid() {
		return nil, apperrors.ErrInvalidDepartment
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, persistence("list patients", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	return lo.Filter(patients, func(p model.Patient, _ int) bool {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.ID), search) {
			return false
		}
		if filter.Status != "" && p.Status != filter.Status {
			return false
		}
		if filter.Department != "" && p.Department != filter.Department {
			return false
		}
		return true
	}), nil
}

// PatientHistory returns recorded status changes, oldest first.
func (s *patientService) PatientHistory(ctx context.Context, id string) ([]model.StatusChange, error) {
	if _, err := s.GetPatientByID(ctx, id); err != nil {
		return nil, err
	}
	changes, err := s.history.ListByEntity(ctx, model.EntityPatient, id)
	if err != nil {
		return nil, persistence("list patient history", err)
	}
	return changes, nil
}

// GroupByDepartment returns every department in display order, empty ones included.
func GroupByDepartment(patients []model.Patient) []DepartmentGroup {
	byDept := lo.GroupBy(patients, func(p model.Patient) model.Department { return p.Department })
	return lo.Map(model.Departments, func(d model.Department, _ int) DepartmentGroup {
		members := byDept[d]
		if members == nil {
			members = []model.Patient{}
		}
		return DepartmentGroup{Department: d, Label: d.Label(), Patients: members}
	})
}

func actorID(actor *model.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
