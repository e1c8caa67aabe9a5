package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/islandechoes/health-api/internal/model"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, clinician_id, scheduled_at, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.Status = model.AppointmentStatusScheduled
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ClinicianID,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, clinician_id, scheduled_at, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appointment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, updatedAt time.Time, evt *model.OutboxEvent) (bool, error) {
	won := false
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`
		result, err := tx.ExecContext(ctx, update, to, updatedAt, id, from)
		if err != nil {
			return fmt.Errorf("failed to transition appointment: %w", err)
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

func (r *appointmentRepository) Reschedule(ctx context.Context, id uuid.UUID, scheduledAt, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, updated_at = $2
		WHERE id = $3 AND status = 'scheduled'
	`
	result, err := r.db.ExecContext(ctx, query, scheduledAt, updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// buildFilterClause renders the shared WHERE clause for appointment listings.
func buildFilterClause(filters *model.AppointmentFilters, alias string) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			conditions = append(conditions, alias+".patient_id = "+arg(filters.PatientID))
		}
		if filters.ClinicianID != uuid.Nil {
			conditions = append(conditions, alias+".clinician_id = "+arg(filters.ClinicianID))
		}
		if filters.Status != "" {
			conditions = append(conditions, alias+".status = "+arg(filters.Status))
		}
		if !filters.From.IsZero() {
			conditions = append(conditions, alias+".scheduled_at >= "+arg(filters.From))
		}
		if !filters.To.IsZero() {
			conditions = append(conditions, alias+".scheduled_at < "+arg(filters.To))
		}
	}

	clause := ""
	if len(conditions) > 0 {
		clause = "WHERE " + strings.Join(conditions, " AND ")
	}
	return clause, args
}

func orderClause(filters *model.AppointmentFilters, alias string) string {
	if filters != nil && filters.OldestFirst {
		return "ORDER BY " + alias + ".scheduled_at ASC"
	}
	return "ORDER BY " + alias + ".scheduled_at DESC"
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	clause, args := buildFilterClause(filters, "a")
	query := `
		SELECT a.id, a.patient_id, a.clinician_id, a.scheduled_at, a.status,
			   a.created_at, a.updated_at
		FROM appointments a
		` + clause + `
		` + orderClause(filters, "a") + `
	`
	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListViews(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentView, error) {
	clause, args := buildFilterClause(filters, "a")
	query := `
		SELECT a.id, a.patient_id, a.clinician_id, a.scheduled_at, a.status,
			   a.created_at, a.updated_at,
			   p.full_name AS clinician_name
		FROM appointments a
		LEFT JOIN profiles p ON p.id = a.clinician_id
		` + clause + `
		` + orderClause(filters, "a") + `
	`
	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var views []*model.AppointmentView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointment views: %w", err)
	}
	return views, nil
}
