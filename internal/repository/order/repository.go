package order

import (
	"context"

	"produce-marketplace/internal/domain"
)

type Repository interface {
	// Create inserts the order and its line snapshot in one transaction.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Transition moves an order to status if the current status allows it.
	Transition(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error)
}
