package careplan

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/islandechoes/health-api/internal/model"
	"github.com/islandechoes/health-api/internal/repository"
	apperrors "github.com/islandechoes/health-api/pkg/errors"
)

const (
	catalogCacheKey = "careplans"
	cacheTTL        = 15 * time.Minute
)

// Service serves the care plan catalog. The catalog is static reference
// data, so reads go through an in-process cache.
type Service struct {
	repo  repository.CarePlanRepository
	cache *gocache.Cache
}

func NewService(repo repository.CarePlanRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *Service) List(ctx context.Context) ([]*model.CarePlan, error) {
	if cached, ok := s.cache.Get(catalogCacheKey); ok {
		return cached.([]*model.CarePlan), nil
	}

	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.cache.Set(catalogCacheKey, plans, cacheTTL)
	return plans, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.CarePlan, error) {
	plans, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}

	// The cache may predate a catalog change; fall through to the table.
	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("care plan", err)
	}
	return plan, nil
}
