package provider

import (
	"context"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/repository"
)

// Directory of water service providers
type ProviderService struct {
	providerRepo repository.ProviderRepo
}

func NewService(providerRepo repository.ProviderRepo) *ProviderService {
	return &ProviderService{providerRepo: providerRepo}
}

// List all providers, the best rated first
func (s *ProviderService) ListProviders(ctx context.Context) ([]models.Provider, error) {
	providers, err := s.providerRepo.ListProviders(ctx)
	if err != nil {
		return nil, apperrors.WrapStorage(err)
	}
	return providers, nil
}
