package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientStatus is the stage of a patient's stay.
type PatientStatus string

const (
	PatientStatusAdmitted          PatientStatus = "admitted"
	PatientStatusInTreatment       PatientStatus = "in-treatment"
	PatientStatusReadyForDischarge PatientStatus = "ready-for-discharge"
	PatientStatusDischarged        PatientStatus = "discharged"
)

// PatientStatuses lists the lifecycle in order. Transitions are not restricted to it.
var PatientStatuses = []PatientStatus{
	PatientStatusAdmitted,
	PatientStatusInTreatment,
	PatientStatusReadyForDischarge,
	PatientStatusDischarged,
}

// Valid reports whether s is a known patient status.
func (s PatientStatus) Valid() bool {
	for _, v := range PatientStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Department is the hospital ward a patient is admitted to.
type Department string

const (
	DepartmentEmergency   Department = "emergency"
	DepartmentCardiology  Department = "cardiology"
	DepartmentNeurology   Department = "neurology"
	DepartmentOrthopedics Department = "orthopedics"
	DepartmentGeneral     Department = "general"
	DepartmentPediatrics  Department = "pediatrics"
)

// Departments lists every department in display order.
var Departments = []Department{
	DepartmentEmergency,
	DepartmentCardiology,
	DepartmentNeurology,
	DepartmentOrthopedics,
	DepartmentGeneral,
	DepartmentPediatrics,
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	for _, v := range Departments {
		if d == v {
			return true
		}
	}
	return false
}

// Label is the heading used when patients are grouped by department.
func (d Department) Label() string {
	switch d {
	case DepartmentEmergency:
		return "Emergency Department"
	case DepartmentCardiology:
		return "Cardiology"
	case DepartmentNeurology:
		return "Neurology"
	case DepartmentOrthopedics:
		return "Orthopedics"
	case DepartmentGeneral:
		return "General Medicine"
	case DepartmentPediatrics:
		return "Pediatrics"
	}
	return string(d)
}

// Patient is a patient admitted through intake.
type Patient struct {
	Seq          uint64        `json:"-" gorm:"primaryKey;autoIncrement"`
	ID           string        `json:"id" gorm:"type:char(36);uniqueIndex;not null"`
	Name         string        `json:"name" gorm:"size:255;not null;index"`
	Age          int           `json:"age" gorm:"not null"`
	Symptoms     string        `json:"symptoms" gorm:"type:text;not null"`
	IsEmergency  bool          `json:"is_emergency" gorm:"default:false;index"`
	RoomNo       string        `json:"room_no,omitempty" gorm:"size:32"`
	Department   Department    `json:"department" gorm:"type:varchar(20);not null;index"`
	Diagnosis    string        `json:"diagnosis,omitempty" gorm:"type:text"`
	AddedByID    string        `json:"added_by_id" gorm:"size:36;index"`
	AddedByName  string        `json:"added_by_name" gorm:"size:255"`
	AdmittedDate time.Time     `json:"admitted_date" gorm:"not null"`
	Status       PatientStatus `json:"status" gorm:"type:varchar(24);not null;default:'admitted';index"`
}

// BeforeCreate sets the public ID before the record is inserted.
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
