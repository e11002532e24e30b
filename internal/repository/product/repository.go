package product

import (
	"context"

	"produce-marketplace/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertFarmer(ctx context.Context, id, name string) error
}
