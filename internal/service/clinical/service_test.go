package clinical

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

type fakeClinicalRepo struct {
	repository.ClinicalRepository

	notes    []*model.AppointmentNote
	services []*model.AppointmentService
	metrics  []*model.PatientMetric
}

func (f *fakeClinicalRepo) AddNote(_ context.Context, note *model.AppointmentNote) error {
	note.ID = uuid.New()
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeClinicalRepo) AddService(_ context.Context, svc *model.AppointmentService) error {
	svc.ID = uuid.New()
	f.services = append(f.services, svc)
	return nil
}

func (f *fakeClinicalRepo) RecordMetric(_ context.Context, metric *model.PatientMetric) error {
	metric.ID = uuid.New()
	f.metrics = append(f.metrics, metric)
	return nil
}

type fakeAppointmentRepo struct {
	repository.AppointmentRepository

	appointments map[uuid.UUID]*model.Appointment
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok {
		return nil, assert.AnError
	}
	return apt, nil
}

type fakeProfileRepo struct {
	repository.ProfileRepository

	profiles map[uuid.UUID]*model.Profile
}

func (f *fakeProfileRepo) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, assert.AnError
	}
	return p, nil
}

func newFixture() (*Service, *fakeClinicalRepo, *model.Appointment, *model.Profile) {
	patient := &model.Profile{Base: model.Base{ID: uuid.New()}, Email: "tomas@example.com"}
	apt := &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   patient.ID,
		ClinicianID: uuid.New(),
		Status:      model.AppointmentStatusScheduled,
	}

	repo := &fakeClinicalRepo{}
	svc := NewService(
		repo,
		&fakeAppointmentRepo{appointments: map[uuid.UUID]*model.Appointment{apt.ID: apt}},
		&fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{patient.ID: patient}},
	)
	return svc, repo, apt, patient
}

func TestAddNoteRequiresAppointment(t *testing.T) {
	svc, repo, apt, _ := newFixture()
	author := uuid.New()

	note, err := svc.AddNote(context.Background(), author, apt.ID, &model.AddNoteRequest{Content: "BP stable, repeat labs next visit"})
	require.NoError(t, err)
	assert.Equal(t, author, note.CreatedBy)
	assert.Len(t, repo.notes, 1)

	_, err = svc.AddNote(context.Background(), author, uuid.New(), &model.AddNoteRequest{Content: "orphan"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAddServiceValidatesType(t *testing.T) {
	svc, repo, apt, _ := newFixture()

	recorded, err := svc.AddService(context.Background(), apt.ID, &model.AddServiceRequest{
		ServiceType: model.ServiceTypeChronicLab,
		Details:     "A1C panel drawn",
	})
	require.NoError(t, err)
	require.NotNil(t, recorded.Details)
	assert.Len(t, repo.services, 1)

	_, err = svc.AddService(context.Background(), apt.ID, &model.AddServiceRequest{ServiceType: "massage"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Len(t, repo.services, 1)
}

func TestRecordMetricsRequiresAtLeastOneMeasurement(t *testing.T) {
	svc, repo, _, patient := newFixture()

	_, err := svc.RecordMetrics(context.Background(), uuid.New(), &model.RecordMetricsRequest{PatientID: patient.ID})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Empty(t, repo.metrics)
}

func TestRecordMetricsAppendsRow(t *testing.T) {
	svc, repo, apt, patient := newFixture()
	clinician := uuid.New()

	systolic, diastolic := 128, 82
	adherence := model.AdherenceGood
	metric, err := svc.RecordMetrics(context.Background(), clinician, &model.RecordMetricsRequest{
		PatientID:              patient.ID,
		AppointmentID:          &apt.ID,
		BloodPressureSystolic:  &systolic,
		BloodPressureDiastolic: &diastolic,
		MedicationAdherence:    &adherence,
	})
	require.NoError(t, err)
	assert.Equal(t, clinician, metric.RecordedBy)
	require.Len(t, repo.metrics, 1)

	// An out-of-band correction is a second row, not an edit.
	weight := 81.5
	_, err = svc.RecordMetrics(context.Background(), clinician, &model.RecordMetricsRequest{
		PatientID: patient.ID,
		WeightKg:  &weight,
	})
	require.NoError(t, err)
	assert.Len(t, repo.metrics, 2)
}

func TestRecordMetricsValidatesReferences(t *testing.T) {
	svc, _, _, patient := newFixture()
	weight := 80.0

	_, err := svc.RecordMetrics(context.Background(), uuid.New(), &model.RecordMetricsRequest{
		PatientID: uuid.New(),
		WeightKg:  &weight,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	missing := uuid.New()
	_, err = svc.RecordMetrics(context.Background(), uuid.New(), &model.RecordMetricsRequest{
		PatientID:     patient.ID,
		AppointmentID: &missing,
		WeightKg:      &weight,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
