package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
	"github.com/islandechoes/health-api/pkg/logger"
	"github.com/islandechoes/health-api/pkg/metrics"
)

// Service inserts and serves in-app notifications. All inserts triggered by
// workflow transitions are best-effort: a failed insert is logged and
// counted, never propagated to the caller.
type Service struct {
	repo    repository.NotificationRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.NotificationRepository, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// Notify inserts one notification, swallowing errors.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, typ model.NotificationType, title, body string, referenceID *uuid.UUID) {
	n := &model.Notification{
		UserID:      userID,
		Type:        typ,
		ReferenceID: referenceID,
		Title:       title,
	}
	if body != "" {
		n.Body = &body
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.metrics.NotificationFailures.Inc()
		s.logger.Error(err, "failed to insert notification",
			"user_id", userID.String(),
			"type", string(typ))
		return
	}
	s.metrics.NotificationsInserted.WithLabelValues(string(typ)).Inc()
}

// NotifyMany fans one notification out to each recipient independently. A
// failure for one recipient never blocks the others.
func (s *Service) NotifyMany(ctx context.Context, userIDs []uuid.UUID, typ model.NotificationType, title, body string, referenceID *uuid.UUID) {
	for _, id := range userIDs {
		s.Notify(ctx, id, typ, title, body, referenceID)
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, id, userID, time.Now())
	if err != nil {
		return apperrors.Internal(err)
	}
	if !ok {
		return apperrors.NotFound("notification", nil)
	}
	return nil
}

func (s *Service) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.DeleteAllForUser(ctx, userID)
}
