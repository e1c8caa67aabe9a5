package careplan

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandechoes/health-api/internal/model"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

type fakeCarePlanRepo struct {
	plans     []*model.CarePlan
	listCalls int
	getCalls  int
}

func (f *fakeCarePlanRepo) List(_ context.Context) ([]*model.CarePlan, error) {
	f.listCalls++
	return f.plans, nil
}

func (f *fakeCarePlanRepo) Get(_ context.Context, id uuid.UUID) (*model.CarePlan, error) {
	f.getCalls++
	for _, p := range f.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, assert.AnError
}

func catalog() []*model.CarePlan {
	return []*model.CarePlan{
		{ID: uuid.New(), Slug: "basic", Name: "Basic", PriceCents: 2900},
		{ID: uuid.New(), Slug: "standard", Name: "Standard", PriceCents: 4900},
		{ID: uuid.New(), Slug: "premium", Name: "Premium", PriceCents: 9900},
	}
}

func TestListCachesCatalog(t *testing.T) {
	repo := &fakeCarePlanRepo{plans: catalog()}
	svc := NewService(repo)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listCalls)
}

func TestGetServesFromCachedCatalog(t *testing.T) {
	repo := &fakeCarePlanRepo{plans: catalog()}
	svc := NewService(repo)

	plan, err := svc.Get(context.Background(), repo.plans[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "standard", plan.Slug)
	assert.Zero(t, repo.getCalls)
}

func TestGetUnknownPlanIsNotFound(t *testing.T) {
	repo := &fakeCarePlanRepo{plans: catalog()}
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
