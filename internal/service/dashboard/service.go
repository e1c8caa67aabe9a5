package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/service/careplan"
	"github.com/islandechoes/health-api/internal/service/notification"
	"github.com/islandechoes/health-api/internal/service/sponsorship"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

const (
	homeNotificationLimit = 20
	detailMetricLimit     = 50
)

// Service composes the read-side aggregates the portals render.
type Service struct {
	profileRepo     repository.ProfileRepository
	appointmentRepo repository.AppointmentRepository
	sponsorshipRepo repository.SponsorshipRepository
	clinicalRepo    repository.ClinicalRepository
	sponsorshipSvc  *sponsorship.Service
	careplanSvc     *careplan.Service
	notifSvc        *notification.Service
}

func NewService(
	profileRepo repository.ProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	sponsorshipRepo repository.SponsorshipRepository,
	clinicalRepo repository.ClinicalRepository,
	sponsorshipSvc *sponsorship.Service,
	careplanSvc *careplan.Service,
	notifSvc *notification.Service,
) *Service {
	return &Service{
		profileRepo:     profileRepo,
		appointmentRepo: appointmentRepo,
		sponsorshipRepo: sponsorshipRepo,
		clinicalRepo:    clinicalRepo,
		sponsorshipSvc:  sponsorshipSvc,
		careplanSvc:     careplanSvc,
		notifSvc:        notifSvc,
	}
}

// UserHome builds the sponsor/patient dashboard in one call.
func (s *Service) UserHome(ctx context.Context, userID uuid.UUID) (*model.UserHome, error) {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}

	sponsorships, err := s.sponsorshipSvc.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.sponsorshipSvc.ListPending(ctx, userID)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.appointmentRepo.List(ctx, &model.AppointmentFilters{
		PatientID:   userID,
		Status:      model.AppointmentStatusScheduled,
		From:        time.Now(),
		Limit:       10,
		OldestFirst: true,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	notifications, err := s.notifSvc.List(ctx, userID, homeNotificationLimit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	plans, err := s.careplanSvc.List(ctx)
	if err != nil {
		return nil, err
	}

	return &model.UserHome{
		FullName:        profile.FullName,
		Sponsorships:    sponsorships,
		PendingConsents: pending,
		Upcoming:        upcoming,
		Notifications:   notifications,
		CarePlans:       plans,
	}, nil
}

// StaffPortal builds the clinician/admin dashboard: the roster of patients
// with an active plan and today's schedule. Clinicians see their own
// schedule; admins and front desk see the whole day.
func (s *Service) StaffPortal(ctx context.Context, staffID uuid.UUID) (*model.StaffPortal, error) {
	staff, err := s.profileRepo.Get(ctx, staffID)
	if err != nil {
		return nil, apperrors.NotFound("profile", err)
	}

	patients, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}

	dayStart := time.Now().Truncate(24 * time.Hour)
	todayFilters := &model.AppointmentFilters{
		From:        dayStart,
		To:          dayStart.Add(24 * time.Hour),
		OldestFirst: true,
	}
	if staff.Role == model.RoleClinician {
		todayFilters.ClinicianID = staffID
	}
	today, err := s.appointmentRepo.ListViews(ctx, todayFilters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.StaffPortal{
		FullName: staff.FullName,
		Role:     staff.Role,
		Patients: patients,
		Today:    today,
	}, nil
}

func (s *Service) roster(ctx context.Context) ([]*model.PortalPatient, error) {
	links, err := s.sponsorshipRepo.ListActiveLinks(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	// One roster row per patient, keyed on the newest link.
	seen := make(map[uuid.UUID]bool, len(links))
	patients := make([]*model.PortalPatient, 0, len(links))
	for _, link := range links {
		if seen[link.PatientID] {
			continue
		}
		seen[link.PatientID] = true

		patient, err := s.profileRepo.Get(ctx, link.PatientID)
		if err != nil {
			continue
		}

		row := &model.PortalPatient{
			PatientID:   patient.ID,
			PatientName: patient.DisplayName("Unnamed patient"),
			DateOfBirth: patient.DateOfBirth,
		}
		if plan, err := s.careplanSvc.Get(ctx, link.CarePlanID); err == nil {
			row.PlanName = plan.Name
		}

		next, err := s.appointmentRepo.List(ctx, &model.AppointmentFilters{
			PatientID:   patient.ID,
			Status:      model.AppointmentStatusScheduled,
			From:        time.Now(),
			Limit:       1,
			OldestFirst: true,
		})
		if err == nil && len(next) > 0 {
			row.NextAppointment = &next[0].ScheduledAt
		}

		patients = append(patients, row)
	}
	return patients, nil
}

// SponsoredPatientDetail is the sponsor's window into a consented patient.
// Access requires an active link owned by the caller.
func (s *Service) SponsoredPatientDetail(ctx context.Context, sponsorID, linkID uuid.UUID) (*model.SponsoredPatientDetail, error) {
	link, err := s.sponsorshipRepo.GetActiveLinkForSponsor(ctx, linkID, sponsorID)
	if err != nil {
		return nil, apperrors.NotFound("sponsorship", err)
	}

	refs, err := s.profileRepo.GetRefs(ctx, []uuid.UUID{link.PatientID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	metrics, err := s.clinicalRepo.ListMetrics(ctx, link.PatientID, detailMetricLimit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	appointments, err := s.appointmentRepo.ListViews(ctx, &model.AppointmentFilters{
		PatientID: link.PatientID,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	aptIDs := make([]uuid.UUID, 0, len(appointments))
	for _, a := range appointments {
		aptIDs = append(aptIDs, a.ID)
	}
	notes, err := s.clinicalRepo.ListNotesForAppointments(ctx, aptIDs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	detail := &model.SponsoredPatientDetail{
		Patient:      refs[link.PatientID],
		StartedAt:    link.StartedAt,
		Metrics:      metrics,
		Appointments: appointments,
		Notes:        notes,
	}
	if plan, err := s.careplanSvc.Get(ctx, link.CarePlanID); err == nil {
		detail.CarePlan = &model.CarePlanRef{
			ID:         plan.ID,
			Slug:       plan.Slug,
			Name:       plan.Name,
			PriceCents: plan.PriceCents,
		}
	}
	return detail, nil
}
