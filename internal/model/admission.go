package model

import (
	"time"

	"github.com/google/uuid"
)

type SignupRequestStatus string

const (
	SignupRequestPending  SignupRequestStatus = "pending"
	SignupRequestApproved SignupRequestStatus = "approved"
	SignupRequestRejected SignupRequestStatus = "rejected"
)

// ClinicianSignupRequest is a prospective clinician's application. It
// transitions exactly once, by an admin, and is immutable afterward.
type ClinicianSignupRequest struct {
	Base
	Email            string              `json:"email" db:"email"`
	FullName         string              `json:"full_name" db:"full_name"`
	LicenseNumber    string              `json:"license_number" db:"license_number"`
	Specialty        *string             `json:"specialty" db:"specialty"`
	Institution      *string             `json:"institution" db:"institution"`
	LicenseImagePath *string             `json:"license_image_path" db:"license_image_path"`
	Status           SignupRequestStatus `json:"status" db:"status"`
	ReviewedBy       *uuid.UUID          `json:"reviewed_by" db:"reviewed_by"`
	ReviewedAt       *time.Time          `json:"reviewed_at" db:"reviewed_at"`
}

type SubmitClinicianRequest struct {
	Email         string `form:"email" binding:"required,email"`
	FullName      string `form:"full_name" binding:"required"`
	LicenseNumber string `form:"license_number" binding:"required"`
	Specialty     string `form:"specialty"`
	Institution   string `form:"institution"`
}
