package appointment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/service/notification"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

// Service owns the visit lifecycle. An appointment moves from scheduled to
// exactly one terminal status; the losing side of a concurrent transition
// gets a conflict, never a second transition.
type Service struct {
	repo            repository.AppointmentRepository
	sponsorshipRepo repository.SponsorshipRepository
	clinicalRepo    repository.ClinicalRepository
	profileRepo     repository.ProfileRepository
	notifSvc        *notification.Service
	logger          *logger.Logger
	metrics         *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	sponsorshipRepo repository.SponsorshipRepository,
	clinicalRepo repository.ClinicalRepository,
	profileRepo repository.ProfileRepository,
	notifSvc *notification.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:            repo,
		sponsorshipRepo: sponsorshipRepo,
		clinicalRepo:    clinicalRepo,
		profileRepo:     profileRepo,
		notifSvc:        notifSvc,
		logger:          logger,
		metrics:         metrics,
	}
}

// Create schedules a visit with the calling clinician.
func (s *Service) Create(ctx context.Context, clinicianID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req.ScheduledAt.Before(time.Now()) {
		return nil, apperrors.BadRequest("appointment cannot be scheduled in the past", nil)
	}
	if _, err := s.profileRepo.Get(ctx, req.PatientID); err != nil {
		return nil, apperrors.NotFound("patient", err)
	}

	apt := &model.Appointment{
		PatientID:   req.PatientID,
		ClinicianID: clinicianID,
		ScheduledAt: req.ScheduledAt,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	return apt, nil
}

// Detail loads the full visit page: participants, notes, services, metrics.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}

	refs, err := s.profileRepo.GetRefs(ctx, []uuid.UUID{apt.PatientID, apt.ClinicianID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	notes, err := s.clinicalRepo.ListNotes(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	services, err := s.clinicalRepo.ListServices(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	metricsRows, err := s.clinicalRepo.ListMetricsForAppointment(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.AppointmentDetail{
		Appointment: *apt,
		Patient:     refs[apt.PatientID],
		Clinician:   refs[apt.ClinicianID],
		Notes:       notes,
		Services:    services,
		Metrics:     metricsRows,
	}, nil
}

// Transition moves a scheduled visit to a terminal status and fans the
// outcome out to the patient and their active sponsors. Notification
// failures never roll the transition back.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target model.AppointmentStatus) (*model.Appointment, error) {
	if !model.ValidAppointmentTransition(target) {
		return nil, apperrors.BadRequest("invalid appointment status", nil)
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	if apt.Status.Terminal() {
		return nil, apperrors.Conflict("appointment was already "+string(apt.Status), nil)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"appointment_id": apt.ID,
		"patient_id":     apt.PatientID,
		"from":           model.AppointmentStatusScheduled,
		"to":             target,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	evt := &model.OutboxEvent{
		EventType: model.EventAppointmentTransitioned,
		Payload:   payload,
	}

	now := time.Now()
	won, err := s.repo.TransitionStatus(ctx, id, model.AppointmentStatusScheduled, target, now, evt)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !won {
		return nil, apperrors.Conflict("appointment status was already updated", nil)
	}
	s.metrics.AppointmentTransitions.WithLabelValues(string(target)).Inc()

	apt.Status = target
	apt.UpdatedAt = now
	s.fanOut(ctx, apt, target)
	return apt, nil
}

// Reschedule moves a still-scheduled visit to a new time.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*model.Appointment, error) {
	if scheduledAt.Before(time.Now()) {
		return nil, apperrors.BadRequest("appointment cannot be scheduled in the past", nil)
	}

	ok, err := s.repo.Reschedule(ctx, id, scheduledAt, time.Now())
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, apperrors.Conflict("only scheduled appointments can be rescheduled", nil)
	}
	return s.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentView, error) {
	views, err := s.repo.ListViews(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return views, nil
}

// fanOut notifies the patient and every active sponsor of the outcome.
func (s *Service) fanOut(ctx context.Context, apt *model.Appointment, target model.AppointmentStatus) {
	patient, _ := s.profileRepo.Get(ctx, apt.PatientID)
	patientName := patient.DisplayName("your patient")

	sponsorIDs, err := s.sponsorshipRepo.ListActiveSponsorsOfPatient(ctx, apt.PatientID)
	if err != nil {
		s.logger.Error(err, "failed to list sponsors for fan-out",
			"appointment_id", apt.ID.String())
		sponsorIDs = nil
	}

	switch target {
	case model.AppointmentStatusCompleted:
		s.notifSvc.Notify(ctx, apt.PatientID, model.NotificationVisitUpdate,
			"Visit completed",
			"Your visit was completed. Notes and results are available on your dashboard.",
			&apt.ID)
		s.notifSvc.NotifyMany(ctx, sponsorIDs, model.NotificationVisitUpdate,
			"Visit completed",
			patientName+" completed their scheduled visit.",
			&apt.ID)
	case model.AppointmentStatusNoShow:
		s.notifSvc.NotifyMany(ctx, sponsorIDs, model.NotificationNoShowAlert,
			"No-show alert",
			patientName+" missed their scheduled visit. You may want to check in with them.",
			&apt.ID)
	case model.AppointmentStatusCancelled:
		s.notifSvc.Notify(ctx, apt.PatientID, model.NotificationVisitUpdate,
			"Visit cancelled",
			"Your scheduled visit was cancelled. Contact the clinic to rebook.",
			&apt.ID)
	}
}
