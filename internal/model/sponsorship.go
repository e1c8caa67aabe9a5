package model

import (
	"time"

	"github.com/google/uuid"
)

type ConsentStatus string

const (
	ConsentStatusPending  ConsentStatus = "pending"
	ConsentStatusAccepted ConsentStatus = "accepted"
	ConsentStatusDeclined ConsentStatus = "declined"
)

// ConsentRequest is the pending offer from a sponsor to a patient to link a
// purchased care plan. It transitions exactly once out of pending.
type ConsentRequest struct {
	Base
	SponsorID          uuid.UUID     `json:"sponsor_id" db:"sponsor_id"`
	PatientEmail       string        `json:"patient_email" db:"patient_email"`
	PatientID          *uuid.UUID    `json:"patient_id" db:"patient_id"`
	CarePlanID         uuid.UUID     `json:"care_plan_id" db:"care_plan_id"`
	Status             ConsentStatus `json:"status" db:"status"`
	DeclineReason      *string       `json:"decline_reason" db:"decline_reason"`
	RespondedAt        *time.Time    `json:"responded_at" db:"responded_at"`
	PaymentSimulatedAt *time.Time    `json:"payment_simulated_at" db:"payment_simulated_at"`
}

// SponsorPatientPlan links a sponsor to a patient for a care plan. Active
// iff EndedAt is null.
type SponsorPatientPlan struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SponsorID        uuid.UUID  `json:"sponsor_id" db:"sponsor_id"`
	PatientID        uuid.UUID  `json:"patient_id" db:"patient_id"`
	CarePlanID       uuid.UUID  `json:"care_plan_id" db:"care_plan_id"`
	ConsentRequestID uuid.UUID  `json:"consent_request_id" db:"consent_request_id"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	EndedAt          *time.Time `json:"ended_at" db:"ended_at"`
}

func (p *SponsorPatientPlan) Active() bool {
	return p.EndedAt == nil
}

type PurchasePlanRequest struct {
	PatientEmail string    `json:"patient_email" binding:"required,email"`
	CarePlanID   uuid.UUID `json:"care_plan_id" binding:"required"`
}

type DeclineConsentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PendingConsentView decorates a pending consent with the names a patient
// needs to decide on it.
type PendingConsentView struct {
	ID           uuid.UUID    `json:"id"`
	PatientEmail string       `json:"patient_email"`
	SponsorName  string       `json:"sponsor_name"`
	CarePlan     *CarePlanRef `json:"care_plan"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SponsorshipView decorates an active link for the sponsor's dashboard.
type SponsorshipView struct {
	ID        uuid.UUID    `json:"id"`
	StartedAt time.Time    `json:"started_at"`
	Patient   *ProfileRef  `json:"patient"`
	CarePlan  *CarePlanRef `json:"care_plan"`
}
