package service

import (
	"context"
	"fmt"

	"github.com/nurpe/contractor-ledger/internal/model"
	"github.com/nurpe/contractor-ledger/internal/repository"
)

// MarketplaceService answers the per-profile contract and job listings.
type MarketplaceService struct {
	store repository.LedgerStore
}

func NewMarketplaceService(store repository.LedgerStore) *MarketplaceService {
	return &MarketplaceService{store: store}
}

func (s *MarketplaceService) GetProfile(ctx context.Context, id uint) (*model.Profile, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return profile, nil
}

// GetContract returns the contract if the profile is one of its parties.
func (s *MarketplaceService) GetContract(ctx context.Context, profileID, contractID uint) (*model.Contract, error) {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, notFound(err, "contract")
	}
	if !contract.HasParty(profileID) {
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

func (s *MarketplaceService) ListActiveContracts(ctx context.Context, profileID uint) ([]model.Contract, error) {
	contracts, err := s.store.ListActiveContracts(ctx, profileID)
	if err != nil {
		return nil, internal(err)
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	return contracts, nil
}

func (s *MarketplaceService) ListUnpaidJobs(ctx context.Context, profileID uint) ([]model.Job, error) {
	jobs, err := s.store.ListUnpaidJobs(ctx, profileID)
	if err != nil {
		return nil, internal(err)
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	return jobs, nil
}
