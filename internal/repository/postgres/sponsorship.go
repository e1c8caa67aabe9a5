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

func (r *sponsorshipRepository) CreateConsent(ctx context.Context, req *model.ConsentRequest) error {
	query := `
		INSERT INTO sponsorship_consent_requests (
			id, sponsor_id, patient_email, patient_id, care_plan_id,
			status, payment_simulated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = model.ConsentStatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.SponsorID,
		req.PatientEmail,
		req.PatientID,
		req.CarePlanID,
		req.Status,
		req.PaymentSimulatedAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consent request: %w", err)
	}
	return nil
}

func (r *sponsorshipRepository) GetConsent(ctx context.Context, id uuid.UUID) (*model.ConsentRequest, error) {
	query := `
		SELECT id, sponsor_id, patient_email, patient_id, care_plan_id,
			   status, decline_reason, responded_at, payment_simulated_at,
			   created_at, updated_at
		FROM sponsorship_consent_requests
		WHERE id = $1
	`
	var req model.ConsentRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consent request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consent request: %w", err)
	}
	return &req, nil
}

func (r *sponsorshipRepository) SetConsentPatient(ctx context.Context, consentID, patientID uuid.UUID) error {
	query := `
		UPDATE sponsorship_consent_requests
		SET patient_id = $1, updated_at = NOW()
		WHERE id = $2 AND patient_id IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, patientID, consentID)
	if err != nil {
		return fmt.Errorf("failed to set consent patient: %w", err)
	}
	return nil
}

func (r *sponsorshipRepository) ClaimConsentsForEmail(ctx context.Context, email string, patientID uuid.UUID) (int64, error) {
	query := `
		UPDATE sponsorship_consent_requests
		SET patient_id = $1, updated_at = NOW()
		WHERE lower(patient_email) = lower($2)
		AND patient_id IS NULL
		AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, patientID, email)
	if err != nil {
		return 0, fmt.Errorf("failed to claim consent requests: %w", err)
	}
	return result.RowsAffected()
}

func (r *sponsorshipRepository) AcceptConsent(ctx context.Context, id uuid.UUID, respondedAt time.Time, link *model.SponsorPatientPlan, evt *model.OutboxEvent) (bool, error) {
	won := false
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE sponsorship_consent_requests
			SET status = 'accepted', responded_at = $1, updated_at = $2
			WHERE id = $3 AND status = 'pending'
		`
		result, err := tx.ExecContext(ctx, update, respondedAt, respondedAt, id)
		if err != nil {
			return fmt.Errorf("failed to accept consent request: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return nil
		}

		insert := `
			INSERT INTO sponsor_patient_plans (
				id, sponsor_id, patient_id, care_plan_id, consent_request_id,
				started_at, ended_at
			) VALUES ($1, $2, $3, $4, $5, $6, NULL)
		`
		if link.ID == uuid.Nil {
			link.ID = uuid.New()
		}
		if _, err := tx.ExecContext(ctx, insert,
			link.ID,
			link.SponsorID,
			link.PatientID,
			link.CarePlanID,
			link.ConsentRequestID,
			link.StartedAt,
		); err != nil {
			return fmt.Errorf("failed to create plan link: %w", err)
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

func (r *sponsorshipRepository) DeclineConsent(ctx context.Context, id uuid.UUID, reason *string, respondedAt time.Time, evt *model.OutboxEvent) (bool, error) {
	won := false
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE sponsorship_consent_requests
			SET status = 'declined', decline_reason = $1, responded_at = $2, updated_at = $3
			WHERE id = $4 AND status = 'pending'
		`
		result, err := tx.ExecContext(ctx, update, reason, respondedAt, respondedAt, id)
		if err != nil {
			return fmt.Errorf("failed to decline consent request: %w", err)
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

func (r *sponsorshipRepository) ListPendingForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.ConsentRequest, error) {
	query := `
		SELECT id, sponsor_id, patient_email, patient_id, care_plan_id,
			   status, decline_reason, responded_at, payment_simulated_at,
			   created_at, updated_at
		FROM sponsorship_consent_requests
		WHERE patient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	var reqs []*model.ConsentRequest
	if err := r.db.SelectContext(ctx, &reqs, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list pending consent requests: %w", err)
	}
	return reqs, nil
}

func (r *sponsorshipRepository) GetActiveLinkForSponsor(ctx context.Context, linkID, sponsorID uuid.UUID) (*model.SponsorPatientPlan, error) {
	query := `
		SELECT id, sponsor_id, patient_id, care_plan_id, consent_request_id,
			   started_at, ended_at
		FROM sponsor_patient_plans
		WHERE id = $1 AND sponsor_id = $2 AND ended_at IS NULL
	`
	var link model.SponsorPatientPlan
	err := r.db.GetContext(ctx, &link, query, linkID, sponsorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sponsorship not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsorship: %w", err)
	}
	return &link, nil
}

func (r *sponsorshipRepository) ListActiveBySponsor(ctx context.Context, sponsorID uuid.UUID) ([]*model.SponsorPatientPlan, error) {
	query := `
		SELECT id, sponsor_id, patient_id, care_plan_id, consent_request_id,
			   started_at, ended_at
		FROM sponsor_patient_plans
		WHERE sponsor_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
	`
	var links []*model.SponsorPatientPlan
	if err := r.db.SelectContext(ctx, &links, query, sponsorID); err != nil {
		return nil, fmt.Errorf("failed to list sponsorships: %w", err)
	}
	return links, nil
}

func (r *sponsorshipRepository) ListActiveSponsorsOfPatient(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT sponsor_id
		FROM sponsor_patient_plans
		WHERE patient_id = $1 AND ended_at IS NULL
	`
	var sponsorIDs []uuid.UUID
	if err := r.db.SelectContext(ctx, &sponsorIDs, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list sponsors of patient: %w", err)
	}
	return sponsorIDs, nil
}

func (r *sponsorshipRepository) ListActiveLinks(ctx context.Context) ([]*model.SponsorPatientPlan, error) {
	query := `
		SELECT id, sponsor_id, patient_id, care_plan_id, consent_request_id,
			   started_at, ended_at
		FROM sponsor_patient_plans
		WHERE ended_at IS NULL
		ORDER BY started_at DESC
	`
	var links []*model.SponsorPatientPlan
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("failed to list active links: %w", err)
	}
	return links, nil
}

func (r *sponsorshipRepository) EndLink(ctx context.Context, linkID, sponsorID uuid.UUID, endedAt time.Time) (bool, error) {
	query := `
		UPDATE sponsor_patient_plans
		SET ended_at = $1
		WHERE id = $2 AND sponsor_id = $3 AND ended_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, endedAt, linkID, sponsorID)
	if err != nil {
		return false, fmt.Errorf("failed to end sponsorship: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}
