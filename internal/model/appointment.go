package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusNoShow || s == AppointmentStatusCancelled
}

func ValidAppointmentTransition(target AppointmentStatus) bool {
	switch target {
	case AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	Base
	PatientID   uuid.UUID         `json:"patient_id" db:"patient_id"`
	ClinicianID uuid.UUID         `json:"clinician_id" db:"clinician_id"`
	ScheduledAt time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Status      AppointmentStatus `json:"status" db:"status"`
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required,not_past"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=completed no_show cancelled"`
}

type RescheduleAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required,not_past"`
}

type AppointmentFilters struct {
	PatientID   uuid.UUID
	ClinicianID uuid.UUID
	Status      AppointmentStatus
	From        time.Time
	To          time.Time
	Limit       int
	// OldestFirst sorts ascending by scheduled time. Upcoming-visit queries
	// need it so From+Limit selects the soonest rows, not the furthest.
	OldestFirst bool
}

// AppointmentView decorates an appointment with the clinician's name for
// display lists.
type AppointmentView struct {
	Appointment
	ClinicianName *string `json:"clinician_name" db:"clinician_name"`
}

// AppointmentDetail is the full record shown on the visit page.
type AppointmentDetail struct {
	Appointment Appointment           `json:"appointment"`
	Patient     *ProfileRef           `json:"patient"`
	Clinician   *ProfileRef           `json:"clinician"`
	Notes       []*AppointmentNote    `json:"notes"`
	Services    []*AppointmentService `json:"services"`
	Metrics     []*PatientMetric      `json:"metrics"`
}
