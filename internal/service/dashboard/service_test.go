package dashboard

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/internal/service/careplan"
	"github.com/islandechoes/health-api/internal/service/notification"
	"github.com/islandechoes/health-api/internal/service/sponsorship"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("dashboard_test")

// fakeAppointmentRepo applies the same filter, order, and limit contract as
// the SQL listing queries.
type fakeAppointmentRepo struct {
	repository.AppointmentRepository

	appointments []*model.Appointment
}

func (f *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.appointments {
		if filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
			continue
		}
		if filters.ClinicianID != uuid.Nil && a.ClinicianID != filters.ClinicianID {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		if !filters.From.IsZero() && a.ScheduledAt.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && !a.ScheduledAt.Before(filters.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if filters.OldestFirst {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[j].ScheduledAt.Before(out[i].ScheduledAt)
	})
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListViews(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentView, error) {
	rows, err := f.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	views := make([]*model.AppointmentView, 0, len(rows))
	for _, a := range rows {
		views = append(views, &model.AppointmentView{Appointment: *a})
	}
	return views, nil
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

func (f *fakeProfileRepo) GetRefs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProfileRef, error) {
	refs := make(map[uuid.UUID]*model.ProfileRef)
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			refs[id] = &model.ProfileRef{ID: p.ID, FullName: p.FullName}
		}
	}
	return refs, nil
}

type fakeSponsorshipRepo struct {
	repository.SponsorshipRepository

	links []*model.SponsorPatientPlan
}

func (f *fakeSponsorshipRepo) ListActiveLinks(_ context.Context) ([]*model.SponsorPatientPlan, error) {
	return f.links, nil
}

func (f *fakeSponsorshipRepo) ListActiveBySponsor(_ context.Context, sponsorID uuid.UUID) ([]*model.SponsorPatientPlan, error) {
	var out []*model.SponsorPatientPlan
	for _, l := range f.links {
		if l.SponsorID == sponsorID && l.EndedAt == nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeSponsorshipRepo) ListPendingForPatient(_ context.Context, _ uuid.UUID) ([]*model.ConsentRequest, error) {
	return nil, nil
}

type fakeCarePlanRepo struct {
	repository.CarePlanRepository

	plans []*model.CarePlan
}

func (f *fakeCarePlanRepo) List(_ context.Context) ([]*model.CarePlan, error) { return f.plans, nil }

func (f *fakeCarePlanRepo) Get(_ context.Context, id uuid.UUID) (*model.CarePlan, error) {
	for _, p := range f.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, assert.AnError
}

type fakeNotificationRepo struct {
	repository.NotificationRepository
}

func (f *fakeNotificationRepo) ListForUser(_ context.Context, _ uuid.UUID, _ int) ([]*model.Notification, error) {
	return nil, nil
}

func strPtr(s string) *string { return &s }

func newFixture(profiles map[uuid.UUID]*model.Profile, sponsorships *fakeSponsorshipRepo, appointments *fakeAppointmentRepo, plans []*model.CarePlan) *Service {
	l := logger.NewLogger(nil)
	profileRepo := &fakeProfileRepo{profiles: profiles}
	careplanSvc := careplan.NewService(&fakeCarePlanRepo{plans: plans})
	notifSvc := notification.NewService(&fakeNotificationRepo{}, l, testMetrics)
	sponsorshipSvc := sponsorship.NewService(sponsorships, profileRepo, careplanSvc, notifSvc, l, testMetrics)
	return NewService(profileRepo, appointments, sponsorships, nil, sponsorshipSvc, careplanSvc, notifSvc)
}

func scheduled(patientID uuid.UUID, at time.Time) *model.Appointment {
	return &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   patientID,
		ClinicianID: uuid.New(),
		ScheduledAt: at,
		Status:      model.AppointmentStatusScheduled,
	}
}

func TestRosterReportsSoonestUpcomingVisit(t *testing.T) {
	admin := &model.Profile{Base: model.Base{ID: uuid.New()}, Role: model.RoleAdmin, FullName: strPtr("Admin")}
	patient := &model.Profile{Base: model.Base{ID: uuid.New()}, Role: model.RoleUser, FullName: strPtr("Tomas")}
	plan := &model.CarePlan{ID: uuid.New(), Name: "Standard"}

	soon := time.Now().Add(24 * time.Hour)
	far := time.Now().Add(30 * 24 * time.Hour)
	appointments := &fakeAppointmentRepo{appointments: []*model.Appointment{
		scheduled(patient.ID, far),
		scheduled(patient.ID, soon),
	}}
	sponsorships := &fakeSponsorshipRepo{links: []*model.SponsorPatientPlan{{
		ID: uuid.New(), SponsorID: uuid.New(), PatientID: patient.ID, CarePlanID: plan.ID, StartedAt: time.Now(),
	}}}

	svc := newFixture(map[uuid.UUID]*model.Profile{admin.ID: admin, patient.ID: patient},
		sponsorships, appointments, []*model.CarePlan{plan})

	portal, err := svc.StaffPortal(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Len(t, portal.Patients, 1)

	require.NotNil(t, portal.Patients[0].NextAppointment)
	assert.WithinDuration(t, soon, *portal.Patients[0].NextAppointment, time.Second)
}

func TestUserHomeUpcomingIsSoonestFirst(t *testing.T) {
	patient := &model.Profile{Base: model.Base{ID: uuid.New()}, Role: model.RoleUser, FullName: strPtr("Tomas")}

	inAMonth := time.Now().Add(30 * 24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)
	nextWeek := time.Now().Add(7 * 24 * time.Hour)
	appointments := &fakeAppointmentRepo{appointments: []*model.Appointment{
		scheduled(patient.ID, inAMonth),
		scheduled(patient.ID, tomorrow),
		scheduled(patient.ID, nextWeek),
		// Past and terminal visits never show as upcoming.
		scheduled(patient.ID, time.Now().Add(-24*time.Hour)),
	}}

	svc := newFixture(map[uuid.UUID]*model.Profile{patient.ID: patient},
		&fakeSponsorshipRepo{}, appointments, nil)

	home, err := svc.UserHome(context.Background(), patient.ID)
	require.NoError(t, err)
	require.Len(t, home.Upcoming, 3)

	assert.WithinDuration(t, tomorrow, home.Upcoming[0].ScheduledAt, time.Second)
	assert.WithinDuration(t, nextWeek, home.Upcoming[1].ScheduledAt, time.Second)
	assert.WithinDuration(t, inAMonth, home.Upcoming[2].ScheduledAt, time.Second)
}
