package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleClinician Role = "clinician"
	RoleAdmin     Role = "admin"
	// RoleFrontDesk is a legacy role kept for accounts created before the
	// clinician/admin split. Treated as clinician for read-only access.
	RoleFrontDesk Role = "front_desk"
)

// IsStaff reports whether the role may use the staff portal.
func (r Role) IsStaff() bool {
	return r == RoleClinician || r == RoleAdmin || r == RoleFrontDesk
}

// CanDocument reports whether the role may mutate clinical data.
func (r Role) CanDocument() bool {
	return r == RoleClinician || r == RoleAdmin
}

// Profile is the application-level identity row, one per auth user.
type Profile struct {
	Base
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	FullName     *string    `json:"full_name" db:"full_name"`
	AvatarURL    *string    `json:"avatar_url" db:"avatar_url"`
	DateOfBirth  *time.Time `json:"date_of_birth" db:"date_of_birth"`
}

// DisplayName returns the profile's name with a fallback suitable for
// notification copy.
func (p *Profile) DisplayName(fallback string) string {
	if p != nil && p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return fallback
}

type UpdateProfileRequest struct {
	FullName    *string    `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

type ProfileFilters struct {
	Role       Role
	SearchTerm string
}

// ProfileRef is the trimmed projection used when embedding a person in
// another resource (sponsor names on consents, clinician names on visits).
type ProfileRef struct {
	ID       uuid.UUID `json:"id" db:"id"`
	FullName *string   `json:"full_name" db:"full_name"`
}
