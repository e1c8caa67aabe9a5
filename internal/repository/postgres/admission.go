package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/islandechoes/health-api/internal/model"
)

func (r *admissionRepository) Create(ctx context.Context, req *model.ClinicianSignupRequest) error {
	query := `
		INSERT INTO clinician_signup_requests (
			id, email, full_name, license_number, specialty, institution,
			license_image_path, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = model.SignupRequestPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.Email,
		req.FullName,
		req.LicenseNumber,
		req.Specialty,
		req.Institution,
		req.LicenseImagePath,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create signup request: %w", err)
	}
	return nil
}

func (r *admissionRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicianSignupRequest, error) {
	query := `
		SELECT id, email, full_name, license_number, specialty, institution,
			   license_image_path, status, reviewed_by, reviewed_at,
			   created_at, updated_at
		FROM clinician_signup_requests
		WHERE id = $1
	`
	var req model.ClinicianSignupRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("signup request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signup request: %w", err)
	}
	return &req, nil
}

func (r *admissionRepository) HasPendingForEmail(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM clinician_signup_requests
			WHERE lower(email) = lower($1) AND status = 'pending'
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("failed to check pending signup request: %w", err)
	}
	return exists, nil
}

func (r *admissionRepository) ListPending(ctx context.Context) ([]*model.ClinicianSignupRequest, error) {
	query := `
		SELECT id, email, full_name, license_number, specialty, institution,
			   license_image_path, status, reviewed_by, reviewed_at,
			   created_at, updated_at
		FROM clinician_signup_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`
	var reqs []*model.ClinicianSignupRequest
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("failed to list pending signup requests: %w", err)
	}
	return reqs, nil
}

func (r *admissionRepository) Review(ctx context.Context, id uuid.UUID, status model.SignupRequestStatus, reviewedBy uuid.UUID, reviewedAt time.Time, evt *model.OutboxEvent) (bool, error) {
	won := false
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE clinician_signup_requests
			SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $4
			WHERE id = $5 AND status = 'pending'
		`
		result, err := tx.ExecContext(ctx, update, status, reviewedBy, reviewedAt, reviewedAt, id)
		if err != nil {
			return fmt.Errorf("failed to review signup request: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return nil
		}

		if evt != nil {
			if err := insertOutboxTx(ctx, tx, evt); err != nil {
				return err
			}
		}
		won = true
		return nil
	})
	return won, err
}
