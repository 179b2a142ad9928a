package repository

import (
	"context"

	"gorm.io/gorm"

	"medisync/internal/model"
)

// PatientRepository defines patient persistence operations.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	UpdateStatus(ctx context.Context, id string, status model.PatientStatus) error
	FindByID(ctx context.Context, id string) (*model.Patient, error)
	List(ctx context.Context) ([]model.Patient, error)
}

type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository.
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

// Create inserts a new patient record.
func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

// UpdateStatus writes only the status column. A missing id is not an error.
func (r *patientRepository) UpdateStatus(ctx context.Context, id string, status model.PatientStatus) error {
	return r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FindByID finds a patient by its public ID.
func (r *patientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

// List returns every patient in insertion order.
func (r *patientRepository) List(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	if err := r.db.WithContext(ctx).Order("seq asc").Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}
