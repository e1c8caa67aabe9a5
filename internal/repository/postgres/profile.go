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

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (
			id, email, password_hash, role, full_name,
			avatar_url, date_of_birth, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.PasswordHash,
		profile.Role,
		profile.FullName,
		profile.AvatarURL,
		profile.DateOfBirth,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *profileRepository) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `
		SELECT id, email, password_hash, role, full_name,
			   avatar_url, date_of_birth, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `
		SELECT id, email, password_hash, role, full_name,
			   avatar_url, date_of_birth, created_at, updated_at
		FROM profiles
		WHERE lower(email) = lower($1)
	`
	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, email); err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) GetRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	query := `SELECT role FROM profiles WHERE id = $1`

	var role model.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("profile not found")
		}
		return "", fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, date_of_birth = $2, updated_at = $3
		WHERE id = $4
	`
	profile.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		profile.FullName,
		profile.DateOfBirth,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

func (r *profileRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE profiles SET avatar_url = $1, updated_at = $2 WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, url, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

func (r *profileRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE profiles SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, hash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

func (r *profileRepository) GetRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProfileRef, error) {
	refs := make(map[uuid.UUID]*model.ProfileRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	query, args, err := sqlx.In(`SELECT id, full_name FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []*model.ProfileRef
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get profile refs: %w", err)
	}

	for _, ref := range rows {
		refs[ref.ID] = ref
	}
	return refs, nil
}
