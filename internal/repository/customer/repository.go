package customer

import (
	"context"

	"produce-marketplace/internal/domain"
)

// Repository persists customers and their delivery addresses.
type Repository interface {
	Upsert(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	UpsertAddress(ctx context.Context, a domain.Address) (*domain.Address, error)
	ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error)
	// GetAddress returns ErrNotFound when the address does not exist or belongs to another customer.
	GetAddress(ctx context.Context, customerID, addressID string) (*domain.Address, error)
}
