package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

// Service owns clinical documentation: notes, delivered services, and the
// append-only metrics time series. Rows are never edited; corrections are
// new rows.
type Service struct {
	repo            repository.ClinicalRepository
	appointmentRepo repository.AppointmentRepository
	profileRepo     repository.ProfileRepository
}

func NewService(
	repo repository.ClinicalRepository,
	appointmentRepo repository.AppointmentRepository,
	profileRepo repository.ProfileRepository,
) *Service {
	return &Service{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		profileRepo:     profileRepo,
	}
}

func (s *Service) AddNote(ctx context.Context, authorID, appointmentID uuid.UUID, req *model.AddNoteRequest) (*model.AppointmentNote, error) {
	if _, err := s.appointmentRepo.Get(ctx, appointmentID); err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}

	note := &model.AppointmentNote{
		AppointmentID: appointmentID,
		Content:       req.Content,
		CreatedBy:     authorID,
	}
	if err := s.repo.AddNote(ctx, note); err != nil {
		return nil, apperrors.Internal(err)
	}
	return note, nil
}

func (s *Service) AddService(ctx context.Context, appointmentID uuid.UUID, req *model.AddServiceRequest) (*model.AppointmentService, error) {
	if !model.ValidServiceType(req.ServiceType) {
		return nil, apperrors.BadRequest("unknown service type", nil)
	}
	if _, err := s.appointmentRepo.Get(ctx, appointmentID); err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}

	svc := &model.AppointmentService{
		AppointmentID: appointmentID,
		ServiceType:   req.ServiceType,
	}
	if req.Details != "" {
		svc.Details = &req.Details
	}
	if err := s.repo.AddService(ctx, svc); err != nil {
		return nil, apperrors.Internal(err)
	}
	return svc, nil
}

// RecordMetrics appends one row to the patient's time series. At least one
// measurement must be present.
func (s *Service) RecordMetrics(ctx context.Context, recordedBy uuid.UUID, req *model.RecordMetricsRequest) (*model.PatientMetric, error) {
	if req.BloodPressureSystolic == nil &&
		req.BloodPressureDiastolic == nil &&
		req.WeightKg == nil &&
		req.A1C == nil &&
		req.MedicationAdherence == nil {
		return nil, apperrors.BadRequest("at least one measurement is required", nil)
	}
	if _, err := s.profileRepo.Get(ctx, req.PatientID); err != nil {
		return nil, apperrors.NotFound("patient", err)
	}
	if req.AppointmentID != nil {
		if _, err := s.appointmentRepo.Get(ctx, *req.AppointmentID); err != nil {
			return nil, apperrors.NotFound("appointment", err)
		}
	}

	metric := &model.PatientMetric{
		PatientID:              req.PatientID,
		AppointmentID:          req.AppointmentID,
		RecordedBy:             recordedBy,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		WeightKg:               req.WeightKg,
		A1C:                    req.A1C,
		MedicationAdherence:    req.MedicationAdherence,
	}
	if err := s.repo.RecordMetric(ctx, metric); err != nil {
		return nil, apperrors.Internal(err)
	}
	return metric, nil
}

func (s *Service) ListMetrics(ctx context.Context, patientID uuid.UUID, limit int) ([]*model.PatientMetric, error) {
	metrics, err := s.repo.ListMetrics(ctx, patientID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return metrics, nil
}
