package cart

import (
	"context"

	"produce-marketplace/internal/domain"
)

// LineInput is a product reference with a quantity, as submitted by a client.
type LineInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Repository stores one cart per customer. Lines keep insertion order.
type Repository interface {
	List(ctx context.Context, customerID string) ([]domain.CartLine, error)
	Add(ctx context.Context, customerID, productID string, quantity int) error
	SetQuantity(ctx context.Context, customerID, productID string, quantity int) error
	Remove(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
	Merge(ctx context.Context, customerID string, lines []LineInput) error
}
