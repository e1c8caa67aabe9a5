package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/service/notification"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("appointment_test")

type fakeAppointmentRepo struct {
	repository.AppointmentRepository

	appointments map[uuid.UUID]*model.Appointment
	events       []*model.OutboxEvent
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	apt.Status = model.AppointmentStatusScheduled
	f.appointments[apt.ID] = apt
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok {
		return nil, assert.AnError
	}
	copied := *apt
	return &copied, nil
}

func (f *fakeAppointmentRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.AppointmentStatus, updatedAt time.Time, evt *model.OutboxEvent) (bool, error) {
	apt, ok := f.appointments[id]
	if !ok || apt.Status != from {
		return false, nil
	}
	apt.Status = to
	apt.UpdatedAt = updatedAt
	if evt != nil {
		f.events = append(f.events, evt)
	}
	return true, nil
}

func (f *fakeAppointmentRepo) Reschedule(_ context.Context, id uuid.UUID, scheduledAt, updatedAt time.Time) (bool, error) {
	apt, ok := f.appointments[id]
	if !ok || apt.Status != model.AppointmentStatusScheduled {
		return false, nil
	}
	apt.ScheduledAt = scheduledAt
	apt.UpdatedAt = updatedAt
	return true, nil
}

type fakeSponsorRepo struct {
	repository.SponsorshipRepository

	sponsorsByPatient map[uuid.UUID][]uuid.UUID
}

func (f *fakeSponsorRepo) ListActiveSponsorsOfPatient(_ context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	return f.sponsorsByPatient[patientID], nil
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

type fakeNotificationRepo struct {
	repository.NotificationRepository

	created []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) byType(typ model.NotificationType) []*model.Notification {
	var out []*model.Notification
	for _, n := range f.created {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	notifs   *fakeNotificationRepo
	patient  *model.Profile
	sponsors []uuid.UUID
}

func newFixture(t *testing.T, sponsorCount int) *fixture {
	t.Helper()

	name := "Tomas"
	patient := &model.Profile{Base: model.Base{ID: uuid.New()}, Email: "tomas@example.com", FullName: &name}

	sponsors := make([]uuid.UUID, 0, sponsorCount)
	for i := 0; i < sponsorCount; i++ {
		sponsors = append(sponsors, uuid.New())
	}

	repo := newFakeAppointmentRepo()
	notifs := &fakeNotificationRepo{}
	l := logger.NewLogger(nil)
	svc := NewService(
		repo,
		&fakeSponsorRepo{sponsorsByPatient: map[uuid.UUID][]uuid.UUID{patient.ID: sponsors}},
		nil,
		&fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{patient.ID: patient}},
		notification.NewService(notifs, l, testMetrics),
		l,
		testMetrics,
	)
	return &fixture{svc: svc, repo: repo, notifs: notifs, patient: patient, sponsors: sponsors}
}

func (fx *fixture) schedule(t *testing.T) *model.Appointment {
	t.Helper()
	apt, err := fx.svc.Create(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   fx.patient.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return apt
}

func TestCreateRejectsPastSchedule(t *testing.T) {
	fx := newFixture(t, 0)

	_, err := fx.svc.Create(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   fx.patient.ID,
		ScheduledAt: time.Now().Add(-time.Hour),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestCreateRejectsUnknownPatient(t *testing.T) {
	fx := newFixture(t, 0)

	_, err := fx.svc.Create(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   uuid.New(),
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestTransitionIsOneWay(t *testing.T) {
	fx := newFixture(t, 0)
	apt := fx.schedule(t)

	updated, err := fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)

	// Transition writes the outbox event in the same repository call.
	require.Len(t, fx.repo.events, 1)
	assert.Equal(t, model.EventAppointmentTransitioned, fx.repo.events[0].EventType)

	// A second verdict conflicts and leaves the first one in place.
	_, err = fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusNoShow)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, model.AppointmentStatusCompleted, fx.repo.appointments[apt.ID].Status)
	assert.Len(t, fx.repo.events, 1)
}

func TestTransitionRejectsScheduledTarget(t *testing.T) {
	fx := newFixture(t, 0)
	apt := fx.schedule(t)

	_, err := fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusScheduled)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestCompletedFansOutToPatientAndSponsors(t *testing.T) {
	fx := newFixture(t, 2)
	apt := fx.schedule(t)

	_, err := fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)

	updates := fx.notifs.byType(model.NotificationVisitUpdate)
	require.Len(t, updates, 3)

	recipients := make(map[uuid.UUID]bool, len(updates))
	for _, n := range updates {
		recipients[n.UserID] = true
	}
	assert.True(t, recipients[fx.patient.ID])
	for _, sponsorID := range fx.sponsors {
		assert.True(t, recipients[sponsorID])
	}
}

func TestNoShowAlertsSponsorsOnly(t *testing.T) {
	fx := newFixture(t, 2)
	apt := fx.schedule(t)

	_, err := fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusNoShow)
	require.NoError(t, err)

	alerts := fx.notifs.byType(model.NotificationNoShowAlert)
	require.Len(t, alerts, 2)
	for _, n := range alerts {
		assert.NotEqual(t, fx.patient.ID, n.UserID)
		assert.Equal(t, "No-show alert", n.Title)
	}
	assert.Empty(t, fx.notifs.byType(model.NotificationVisitUpdate))
}

func TestCancelledNotifiesPatientOnly(t *testing.T) {
	fx := newFixture(t, 2)
	apt := fx.schedule(t)

	_, err := fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	updates := fx.notifs.byType(model.NotificationVisitUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, fx.patient.ID, updates[0].UserID)
}

func TestRescheduleOnlyWhileScheduled(t *testing.T) {
	fx := newFixture(t, 0)
	apt := fx.schedule(t)

	newTime := time.Now().Add(48 * time.Hour)
	updated, err := fx.svc.Reschedule(context.Background(), apt.ID, newTime)
	require.NoError(t, err)
	assert.WithinDuration(t, newTime, updated.ScheduledAt, time.Second)

	_, err = fx.svc.Transition(context.Background(), apt.ID, model.AppointmentStatusCancelled)
	require.NoError(t, err)

	_, err = fx.svc.Reschedule(context.Background(), apt.ID, time.Now().Add(72*time.Hour))
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}
