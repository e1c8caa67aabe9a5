package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationConsentRequest      NotificationType = "consent_request"
	NotificationVisitUpdate         NotificationType = "visit_update"
	NotificationNoShowAlert         NotificationType = "no_show_alert"
	NotificationSponsorshipAccepted NotificationType = "sponsorship_accepted"
)

// Notification is an in-app row inserted as a side effect of workflow
// transitions. Delivery is best-effort: the triggering mutation never fails
// because a notification insert did.
type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Body        *string          `json:"body" db:"body"`
	ReferenceID *uuid.UUID       `json:"reference_id" db:"reference_id"`
	ReadAt      *time.Time       `json:"read_at" db:"read_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
