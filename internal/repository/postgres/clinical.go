package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/islandechoes/health-api/internal/model"
)

func (r *clinicalRepository) AddNote(ctx context.Context, note *model.AppointmentNote) error {
	query := `
		INSERT INTO appointment_notes (
			id, appointment_id, content, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	note.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.AppointmentID,
		note.Content,
		note.CreatedBy,
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

func (r *clinicalRepository) ListNotes(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentNote, error) {
	query := `
		SELECT id, appointment_id, content, created_by, created_at
		FROM appointment_notes
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`
	var notes []*model.AppointmentNote
	if err := r.db.SelectContext(ctx, &notes, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *clinicalRepository) ListNotesForAppointments(ctx context.Context, appointmentIDs []uuid.UUID) ([]*model.AppointmentNote, error) {
	if len(appointmentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, appointment_id, content, created_by, created_at
		FROM appointment_notes
		WHERE appointment_id IN (?)
		ORDER BY created_at ASC
	`, appointmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build notes query: %w", err)
	}

	var notes []*model.AppointmentNote
	if err := r.db.SelectContext(ctx, &notes, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *clinicalRepository) AddService(ctx context.Context, svc *model.AppointmentService) error {
	query := `
		INSERT INTO appointment_services (
			id, appointment_id, service_type, details, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	svc.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		svc.ID,
		svc.AppointmentID,
		svc.ServiceType,
		svc.Details,
		svc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add service: %w", err)
	}
	return nil
}

func (r *clinicalRepository) ListServices(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentService, error) {
	query := `
		SELECT id, appointment_id, service_type, details, created_at
		FROM appointment_services
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`
	var services []*model.AppointmentService
	if err := r.db.SelectContext(ctx, &services, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *clinicalRepository) RecordMetric(ctx context.Context, metric *model.PatientMetric) error {
	query := `
		INSERT INTO patient_metrics (
			id, patient_id, appointment_id, recorded_by,
			blood_pressure_systolic, blood_pressure_diastolic,
			weight_kg, a1c, medication_adherence, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}
	metric.RecordedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		metric.ID,
		metric.PatientID,
		metric.AppointmentID,
		metric.RecordedBy,
		metric.BloodPressureSystolic,
		metric.BloodPressureDiastolic,
		metric.WeightKg,
		metric.A1C,
		metric.MedicationAdherence,
		metric.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

func (r *clinicalRepository) ListMetrics(ctx context.Context, patientID uuid.UUID, limit int) ([]*model.PatientMetric, error) {
	query := `
		SELECT id, patient_id, appointment_id, recorded_by,
			   blood_pressure_systolic, blood_pressure_diastolic,
			   weight_kg, a1c, medication_adherence, recorded_at
		FROM patient_metrics
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}
	var metrics []*model.PatientMetric
	if err := r.db.SelectContext(ctx, &metrics, query, patientID, limit); err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return metrics, nil
}

func (r *clinicalRepository) ListMetricsForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.PatientMetric, error) {
	query := `
		SELECT id, patient_id, appointment_id, recorded_by,
			   blood_pressure_systolic, blood_pressure_diastolic,
			   weight_kg, a1c, medication_adherence, recorded_at
		FROM patient_metrics
		WHERE appointment_id = $1
		ORDER BY recorded_at ASC
	`
	var metrics []*model.PatientMetric
	if err := r.db.SelectContext(ctx, &metrics, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return metrics, nil
}
