package customer

import (
	"context"

	"produce-marketplace/internal/domain"
)

type customerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error)
}

// Service exposes the authenticated customer's profile and delivery addresses.
// Account creation and credentials live in the external auth service.
type Service struct {
	repo customerRepo
}

func New(repo customerRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Profile(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

func (s *Service) Addresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	addrs, err := s.repo.ListAddresses(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if addrs == nil {
		addrs = []domain.Address{}
	}
	return addrs, nil
}
