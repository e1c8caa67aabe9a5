package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
)

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, type, title, body, reference_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Body,
		n.ReferenceID,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

const defaultNotificationLimit = 20

func notificationLimit(limit int) int {
	if limit <= 0 {
		return defaultNotificationLimit
	}
	return limit
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, body, reference_id, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, notificationLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE notifications
		SET read_at = $1
		WHERE id = $2 AND user_id = $3 AND read_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, at, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

func (r *notificationRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return result.RowsAffected()
}
