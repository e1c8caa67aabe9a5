package worker

import (
	"context"
	"time"

	"github.com/islandechoes/health-api/internal/repository"
	"github.com/islandechoes/health-api/pkg/logger"
)

// OutboxCleanupWorker deletes processed outbox rows past the retention
// window so the table stays small enough to scan with locks.
type OutboxCleanupWorker struct {
	repo          repository.OutboxRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retentionDays int, interval time.Duration, logger *logger.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
			if err != nil {
				w.logger.Error(err, "failed to clean up processed outbox events")
				continue
			}
			if deleted > 0 {
				w.logger.Info("cleaned up processed outbox events", "deleted", deleted)
			}
		}
	}
}

// TokenCleanupWorker drops expired reset tokens and revocations.
type TokenCleanupWorker struct {
	repo     repository.TokenRepository
	interval time.Duration
	logger   *logger.Logger
}

func NewTokenCleanupWorker(repo repository.TokenRepository, interval time.Duration, logger *logger.Logger) *TokenCleanupWorker {
	return &TokenCleanupWorker{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

func (w *TokenCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := w.repo.DeleteExpiredBefore(ctx, time.Now())
			if err != nil {
				w.logger.Error(err, "failed to clean up expired tokens")
				continue
			}
			if deleted > 0 {
				w.logger.Info("cleaned up expired tokens", "deleted", deleted)
			}
		}
	}
}
