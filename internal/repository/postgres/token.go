package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, token, userID, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	// Single conditional delete: the token is valid at most once.
	query := `
		DELETE FROM password_reset_tokens
		WHERE token = $1 AND expires_at > $2
		RETURNING user_id
	`
	var userID uuid.UUID
	err := r.db.GetContext(ctx, &userID, query, token, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("invalid or expired reset token")
		}
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}

func (r *tokenRepository) RevokeToken(ctx context.Context, token string, expiry time.Time) error {
	query := `
		INSERT INTO revoked_tokens (token, expires_at, revoked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, token, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *tokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token = $1)`

	var revoked bool
	if err := r.db.GetContext(ctx, &revoked, query, token); err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return revoked, nil
}

func (r *tokenRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	var total int64

	result, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}

	result, err = r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return total, fmt.Errorf("failed to delete expired revocations: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}
