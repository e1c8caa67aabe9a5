package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/islandechoes/health-api/internal/model"
)

func (r *carePlanRepository) List(ctx context.Context) ([]*model.CarePlan, error) {
	query := `
		SELECT id, slug, name, price_cents, features
		FROM care_plans
		ORDER BY price_cents ASC
	`
	var plans []*model.CarePlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list care plans: %w", err)
	}
	return plans, nil
}

func (r *carePlanRepository) Get(ctx context.Context, id uuid.UUID) (*model.CarePlan, error) {
	query := `
		SELECT id, slug, name, price_cents, features
		FROM care_plans
		WHERE id = $1
	`
	var plan model.CarePlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, fmt.Errorf("failed to get care plan: %w", err)
	}
	return &plan, nil
}
