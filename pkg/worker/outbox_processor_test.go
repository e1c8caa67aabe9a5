package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("worker_test")

type fakeOutboxRepo struct {
	repository.OutboxRepository

	pending    []*model.OutboxEvent
	processed  []uuid.UUID
	failed     map[uuid.UUID]string
	deadLetter []*model.OutboxEvent
}

func newFakeOutboxRepo(events ...*model.OutboxEvent) *fakeOutboxRepo {
	return &fakeOutboxRepo{pending: events, failed: make(map[uuid.UUID]string)}
}

func (f *fakeOutboxRepo) GetPendingWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string, _ *time.Time) error {
	f.failed[id] = errorMessage
	return nil
}

func (f *fakeOutboxRepo) MoveToDeadLetter(_ context.Context, event *model.OutboxEvent) error {
	f.deadLetter = append(f.deadLetter, event)
	return nil
}

type fakeBroker struct {
	published map[string][]interface{}
	failures  int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][]interface{})}
}

func (f *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if f.failures > 0 {
		f.failures--
		return assert.AnError
	}
	f.published[channel] = append(f.published[channel], message)
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	return nil, assert.AnError
}

func (f *fakeBroker) Close() error { return nil }

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
}

func event(eventType string, retryCount int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  eventType,
		Payload:    []byte(`{"patient_id":"x"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retryCount,
	}
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	evt := event(model.EventConsentResponded, 0)
	repo := newFakeOutboxRepo(evt)
	broker := newFakeBroker()
	p := NewOutboxProcessor(repo, broker, testConfig(), logger.NewLogger(nil), testMetrics)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
	assert.Len(t, broker.published[model.EventConsentResponded], 1)
	assert.Empty(t, repo.deadLetter)
}

func TestProcessEventRetriesTransientPublishFailure(t *testing.T) {
	evt := event(model.EventAppointmentTransitioned, 0)
	repo := newFakeOutboxRepo(evt)
	broker := newFakeBroker()
	broker.failures = 2
	p := NewOutboxProcessor(repo, broker, testConfig(), logger.NewLogger(nil), testMetrics)

	require.NoError(t, p.processEvents(context.Background()))

	// Third attempt within the same pass succeeded.
	assert.Equal(t, []uuid.UUID{evt.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessEventSchedulesRetryOnFirstFailure(t *testing.T) {
	evt := event(model.EventAppointmentTransitioned, 0)
	repo := newFakeOutboxRepo(evt)
	broker := newFakeBroker()
	broker.failures = 10
	p := NewOutboxProcessor(repo, broker, testConfig(), logger.NewLogger(nil), testMetrics)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, repo.processed)
	assert.Contains(t, repo.failed, evt.ID)
	assert.Empty(t, repo.deadLetter)
}

func TestPoisonEventMovesToDeadLetter(t *testing.T) {
	// Already at the retry ceiling; one more failure dead-letters it.
	evt := event(model.EventClinicianReviewed, 2)
	repo := newFakeOutboxRepo(evt)
	broker := newFakeBroker()
	broker.failures = 10
	p := NewOutboxProcessor(repo, broker, testConfig(), logger.NewLogger(nil), testMetrics)

	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, repo.deadLetter, 1)
	assert.Equal(t, evt.ID, repo.deadLetter[0].ID)
	assert.Empty(t, repo.processed)
}

func TestConfigValidation(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 0
	assert.Panics(t, func() {
		NewOutboxProcessor(newFakeOutboxRepo(), newFakeBroker(), cfg, logger.NewLogger(nil), testMetrics)
	})
}
