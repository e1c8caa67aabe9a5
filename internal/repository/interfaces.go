package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
)

// All repository interfaces in one file
type (
	// ProfileRepository handles identity/profile rows.
	ProfileRepository interface {
		Create(ctx context.Context, profile *model.Profile) error
		Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
		GetByEmail(ctx context.Context, email string) (*model.Profile, error)
		// GetRole re-reads the role column for per-request authorization.
		GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
		Update(ctx context.Context, profile *model.Profile) error
		UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) error
		UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
		GetRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProfileRef, error)
	}

	// TokenRepository stores password-reset tokens and revoked JWTs.
	TokenRepository interface {
		StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
		// ConsumeResetToken validates and invalidates the token in one step.
		ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
		RevokeToken(ctx context.Context, token string, expiry time.Time) error
		IsRevoked(ctx context.Context, token string) (bool, error)
		DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
	}

	CarePlanRepository interface {
		List(ctx context.Context) ([]*model.CarePlan, error)
		Get(ctx context.Context, id uuid.UUID) (*model.CarePlan, error)
	}

	// SponsorshipRepository owns consent requests and sponsor-patient plan
	// links so the accept transition and link insert share one transaction.
	SponsorshipRepository interface {
		CreateConsent(ctx context.Context, req *model.ConsentRequest) error
		GetConsent(ctx context.Context, id uuid.UUID) (*model.ConsentRequest, error)
		SetConsentPatient(ctx context.Context, consentID, patientID uuid.UUID) error
		// ClaimConsentsForEmail attaches a newly registered patient to any
		// pending consents addressed to their email.
		ClaimConsentsForEmail(ctx context.Context, email string, patientID uuid.UUID) (int64, error)
		// AcceptConsent performs the conditional pending->accepted update,
		// inserts the plan link, and persists evt (when non-nil) atomically.
		// Returns false when the request already left pending.
		AcceptConsent(ctx context.Context, id uuid.UUID, respondedAt time.Time, link *model.SponsorPatientPlan, evt *model.OutboxEvent) (bool, error)
		DeclineConsent(ctx context.Context, id uuid.UUID, reason *string, respondedAt time.Time, evt *model.OutboxEvent) (bool, error)
		ListPendingForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.ConsentRequest, error)
		GetActiveLinkForSponsor(ctx context.Context, linkID, sponsorID uuid.UUID) (*model.SponsorPatientPlan, error)
		ListActiveBySponsor(ctx context.Context, sponsorID uuid.UUID) ([]*model.SponsorPatientPlan, error)
		// ListActiveSponsorsOfPatient returns sponsor ids with ended_at null.
		ListActiveSponsorsOfPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
		ListActiveLinks(ctx context.Context) ([]*model.SponsorPatientPlan, error)
		EndLink(ctx context.Context, linkID, sponsorID uuid.UUID, endedAt time.Time) (bool, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// TransitionStatus is a single conditional write: rows move from
		// `from` to `to` or the call reports false. evt, when non-nil, is
		// persisted in the same transaction.
		TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, updatedAt time.Time, evt *model.OutboxEvent) (bool, error)
		Reschedule(ctx context.Context, id uuid.UUID, scheduledAt, updatedAt time.Time) (bool, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListViews(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentView, error)
	}

	ClinicalRepository interface {
		AddNote(ctx context.Context, note *model.AppointmentNote) error
		ListNotes(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentNote, error)
		ListNotesForAppointments(ctx context.Context, appointmentIDs []uuid.UUID) ([]*model.AppointmentNote, error)
		AddService(ctx context.Context, svc *model.AppointmentService) error
		ListServices(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentService, error)
		RecordMetric(ctx context.Context, metric *model.PatientMetric) error
		ListMetrics(ctx context.Context, patientID uuid.UUID, limit int) ([]*model.PatientMetric, error)
		ListMetricsForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.PatientMetric, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
		DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	}

	AdmissionRepository interface {
		Create(ctx context.Context, req *model.ClinicianSignupRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.ClinicianSignupRequest, error)
		HasPendingForEmail(ctx context.Context, email string) (bool, error)
		ListPending(ctx context.Context) ([]*model.ClinicianSignupRequest, error)
		// Review conditionally transitions pending -> status; false when
		// the request was already reviewed.
		Review(ctx context.Context, id uuid.UUID, status model.SignupRequestStatus, reviewedBy uuid.UUID, reviewedAt time.Time, evt *model.OutboxEvent) (bool, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryAt *time.Time) error
		MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
