package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("notification_test")

type fakeNotificationRepo struct {
	repository.NotificationRepository

	created []*model.Notification
	read    map[uuid.UUID]uuid.UUID
	failing bool
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if f.failing {
		return assert.AnError
	}
	n.ID = uuid.New()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID, _ time.Time) (bool, error) {
	owner, ok := f.read[id]
	if !ok || owner != userID {
		return false, nil
	}
	delete(f.read, id)
	return true, nil
}

func newService(repo *fakeNotificationRepo) *Service {
	return NewService(repo, logger.NewLogger(nil), testMetrics)
}

func TestNotifySwallowsInsertFailures(t *testing.T) {
	repo := &fakeNotificationRepo{failing: true}
	svc := newService(repo)

	// Must not panic or surface the error to the workflow caller.
	svc.Notify(context.Background(), uuid.New(), model.NotificationVisitUpdate, "Visit completed", "", nil)
	assert.Empty(t, repo.created)
}

func TestNotifyManyDeliversIndependently(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newService(repo)

	recipients := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	refID := uuid.New()
	svc.NotifyMany(context.Background(), recipients, model.NotificationNoShowAlert, "No-show alert", "check in", &refID)

	require.Len(t, repo.created, 3)
	for i, n := range repo.created {
		assert.Equal(t, recipients[i], n.UserID)
		assert.Equal(t, model.NotificationNoShowAlert, n.Type)
		require.NotNil(t, n.ReferenceID)
		assert.Equal(t, refID, *n.ReferenceID)
	}
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	owner := uuid.New()
	notifID := uuid.New()
	repo := &fakeNotificationRepo{read: map[uuid.UUID]uuid.UUID{notifID: owner}}
	svc := newService(repo)

	err := svc.MarkRead(context.Background(), notifID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	require.NoError(t, svc.MarkRead(context.Background(), notifID, owner))

	// Already read: the conditional update matches nothing.
	err = svc.MarkRead(context.Background(), notifID, owner)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
