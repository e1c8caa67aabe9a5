package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/islandechoes/health-api/internal/repository"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

type profileRepository struct {
	BaseRepository
}

type tokenRepository struct {
	BaseRepository
}

type carePlanRepository struct {
	BaseRepository
}

type sponsorshipRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type clinicalRepository struct {
	BaseRepository
}

type notificationRepository struct {
	BaseRepository
}

type admissionRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{NewBaseRepository(db)}
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{NewBaseRepository(db)}
}

func NewCarePlanRepository(db *sqlx.DB) repository.CarePlanRepository {
	return &carePlanRepository{NewBaseRepository(db)}
}

func NewSponsorshipRepository(db *sqlx.DB) repository.SponsorshipRepository {
	return &sponsorshipRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewClinicalRepository(db *sqlx.DB) repository.ClinicalRepository {
	return &clinicalRepository{NewBaseRepository(db)}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{NewBaseRepository(db)}
}

func NewAdmissionRepository(db *sqlx.DB) repository.AdmissionRepository {
	return &admissionRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
