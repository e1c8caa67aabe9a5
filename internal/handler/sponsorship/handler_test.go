package sponsorship

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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

var testMetrics = metrics.NewMetrics("sponsorship_handler_test")

type fakeSponsorshipRepo struct {
	repository.SponsorshipRepository

	consent        *model.ConsentRequest
	declineReasons []*string
}

func (f *fakeSponsorshipRepo) GetConsent(_ context.Context, id uuid.UUID) (*model.ConsentRequest, error) {
	if f.consent == nil || f.consent.ID != id {
		return nil, assert.AnError
	}
	return f.consent, nil
}

func (f *fakeSponsorshipRepo) DeclineConsent(_ context.Context, _ uuid.UUID, reason *string, _ time.Time, _ *model.OutboxEvent) (bool, error) {
	f.declineReasons = append(f.declineReasons, reason)
	return true, nil
}

type fakeCarePlanRepo struct {
	repository.CarePlanRepository
}

func (f *fakeCarePlanRepo) List(_ context.Context) ([]*model.CarePlan, error) { return nil, nil }

type fakeNotificationRepo struct {
	repository.NotificationRepository
}

func (f *fakeNotificationRepo) Create(_ context.Context, _ *model.Notification) error { return nil }

func declineRouter(patientID uuid.UUID, repo *fakeSponsorshipRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := logger.NewLogger(nil)
	notifSvc := notification.NewService(&fakeNotificationRepo{}, l, testMetrics)
	careplanSvc := careplan.NewService(&fakeCarePlanRepo{})
	svc := sponsorship.NewService(repo, nil, careplanSvc, notifSvc, l, testMetrics)
	h := NewHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", patientID.String()) })
	r.POST("/consents/:id/decline", h.DeclineConsent)
	return r
}

func newPendingConsent(patientID uuid.UUID) *model.ConsentRequest {
	return &model.ConsentRequest{
		Base:         model.Base{ID: uuid.New()},
		SponsorID:    uuid.New(),
		PatientEmail: "tomas@example.com",
		PatientID:    &patientID,
		CarePlanID:   uuid.New(),
		Status:       model.ConsentStatusPending,
	}
}

func TestDeclineConsentAcceptsEmptyBody(t *testing.T) {
	patientID := uuid.New()
	repo := &fakeSponsorshipRepo{consent: newPendingConsent(patientID)}
	r := declineRouter(patientID, repo)

	// The decline reason is optional, so no request body at all is valid.
	req := httptest.NewRequest(http.MethodPost, "/consents/"+repo.consent.ID.String()+"/decline", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.declineReasons, 1)
	assert.Nil(t, repo.declineReasons[0])
}

func TestDeclineConsentPassesReason(t *testing.T) {
	patientID := uuid.New()
	repo := &fakeSponsorshipRepo{consent: newPendingConsent(patientID)}
	r := declineRouter(patientID, repo)

	body := strings.NewReader(`{"reason":"not right now"}`)
	req := httptest.NewRequest(http.MethodPost, "/consents/"+repo.consent.ID.String()+"/decline", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.declineReasons, 1)
	require.NotNil(t, repo.declineReasons[0])
	assert.Equal(t, "not right now", *repo.declineReasons[0])
}

func TestDeclineConsentRejectsMalformedBody(t *testing.T) {
	patientID := uuid.New()
	repo := &fakeSponsorshipRepo{consent: newPendingConsent(patientID)}
	r := declineRouter(patientID, repo)

	body := strings.NewReader(`{"reason":`)
	req := httptest.NewRequest(http.MethodPost, "/consents/"+repo.consent.ID.String()+"/decline", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.declineReasons)
}