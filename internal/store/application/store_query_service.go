package application

import (
	"context"

	"github.com/machinaka-dev/congestion-map-services/api/internal/store/domain"
)

// storeQueryService is the concrete implementation of StoreQueryService.
type storeQueryService struct {
	repo StoreRepository
}

// NewStoreQueryService creates a new store query service.
func NewStoreQueryService(repo StoreRepository) StoreQueryService {
	return &storeQueryService{repo: repo}
}

func (s *storeQueryService) List(ctx context.Context, filter StoreFilter) ([]domain.Store, error) {
	return s.repo.Find(ctx, filter)
}

func (s *storeQueryService) Detail(ctx context.Context, id string) (*domain.Store, error) {
	return s.repo.FindByID(ctx, id)
}
