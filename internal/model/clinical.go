package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceType string

const (
	ServiceTypeVitals        ServiceType = "vitals"
	ServiceTypeChronicLab    ServiceType = "chronic_lab"
	ServiceTypeWellnessCheck ServiceType = "wellness_check"
	ServiceTypeFollowUp      ServiceType = "follow_up"
	ServiceTypeCoordination  ServiceType = "coordination"
)

// ServiceTypes is the closed set accepted by the documentation endpoints.
var ServiceTypes = []ServiceType{
	ServiceTypeVitals,
	ServiceTypeChronicLab,
	ServiceTypeWellnessCheck,
	ServiceTypeFollowUp,
	ServiceTypeCoordination,
}

func ValidServiceType(t ServiceType) bool {
	for _, s := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

type MedicationAdherence string

const (
	AdherenceGood MedicationAdherence = "good"
	AdherenceFair MedicationAdherence = "fair"
	AdherencePoor MedicationAdherence = "poor"
)

// AppointmentNote is append-only free text tied to a visit.
type AppointmentNote struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	Content       string    `json:"content" db:"content"`
	CreatedBy     uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// AppointmentService records a categorized service delivered during a visit.
type AppointmentService struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	AppointmentID uuid.UUID   `json:"appointment_id" db:"appointment_id"`
	ServiceType   ServiceType `json:"service_type" db:"service_type"`
	Details       *string     `json:"details" db:"details"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// PatientMetric is one row of an append-only time series. Corrections are
// new rows, never edits.
type PatientMetric struct {
	ID                     uuid.UUID            `json:"id" db:"id"`
	PatientID              uuid.UUID            `json:"patient_id" db:"patient_id"`
	AppointmentID          *uuid.UUID           `json:"appointment_id" db:"appointment_id"`
	RecordedBy             uuid.UUID            `json:"recorded_by" db:"recorded_by"`
	BloodPressureSystolic  *int                 `json:"blood_pressure_systolic" db:"blood_pressure_systolic"`
	BloodPressureDiastolic *int                 `json:"blood_pressure_diastolic" db:"blood_pressure_diastolic"`
	WeightKg               *float64             `json:"weight_kg" db:"weight_kg"`
	A1C                    *float64             `json:"a1c" db:"a1c"`
	MedicationAdherence    *MedicationAdherence `json:"medication_adherence" db:"medication_adherence"`
	RecordedAt             time.Time            `json:"recorded_at" db:"recorded_at"`
}

type AddNoteRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

type AddServiceRequest struct {
	ServiceType ServiceType `json:"service_type" binding:"required"`
	Details     string      `json:"details" binding:"max=1000"`
}

type RecordMetricsRequest struct {
	PatientID              uuid.UUID            `json:"patient_id" binding:"required"`
	AppointmentID          *uuid.UUID           `json:"appointment_id"`
	BloodPressureSystolic  *int                 `json:"blood_pressure_systolic" binding:"omitempty,gt=0"`
	BloodPressureDiastolic *int                 `json:"blood_pressure_diastolic" binding:"omitempty,gt=0"`
	WeightKg               *float64             `json:"weight_kg" binding:"omitempty,gt=0"`
	A1C                    *float64             `json:"a1c" binding:"omitempty,gt=0"`
	MedicationAdherence    *MedicationAdherence `json:"medication_adherence" binding:"omitempty,oneof=good fair poor"`
}
