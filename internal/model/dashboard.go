package model

import (
	"time"

	"github.com/google/uuid"
)

// UserHome aggregates everything the sponsor/patient dashboard renders.
type UserHome struct {
	FullName        *string               `json:"full_name"`
	Sponsorships    []*SponsorshipView    `json:"sponsorships"`
	PendingConsents []*PendingConsentView `json:"pending_consents"`
	Upcoming        []*Appointment        `json:"upcoming_appointments"`
	Notifications   []*Notification       `json:"notifications"`
	CarePlans       []*CarePlan           `json:"care_plans"`
}

// PortalPatient is one row of the staff portal's patient roster.
type PortalPatient struct {
	PatientID       uuid.UUID  `json:"patient_id"`
	PatientName     string     `json:"patient_name"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	PlanName        string     `json:"plan_name"`
	NextAppointment *time.Time `json:"next_appointment"`
}

// StaffPortal aggregates the clinician/admin dashboard.
type StaffPortal struct {
	FullName *string            `json:"full_name"`
	Role     Role               `json:"role"`
	Patients []*PortalPatient   `json:"patients"`
	Today    []*AppointmentView `json:"today_appointments"`
}

// SponsoredPatientDetail is the sponsor's view into a consented patient.
type SponsoredPatientDetail struct {
	Patient      *ProfileRef        `json:"patient"`
	CarePlan     *CarePlanRef       `json:"care_plan"`
	StartedAt    time.Time          `json:"started_at"`
	Metrics      []*PatientMetric   `json:"metrics"`
	Appointments []*AppointmentView `json:"appointments"`
	Notes        []*AppointmentNote `json:"notes"`
}
