package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/storefront/cart"
)

// GuestStorage persists the whole ordered cart into one Slot on every mutation.
// Every failure is reported as domain.ErrStorage.
type GuestStorage struct {
	slot Slot
}

func NewGuest(slot Slot) *GuestStorage {
	return &GuestStorage{slot: slot}
}

func (g *GuestStorage) Load(ctx context.Context) ([]domain.CartLine, error) {
	data, err := g.slot.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if len(data) == 0 {
		return []domain.CartLine{}, nil
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("%w: decode guest cart: %v", domain.ErrStorage, err)
	}
	// Repeated product ids fold into the first line so the cart keeps one
	// line per product.
	valid := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != "" && l.Quantity >= 1 {
			valid = domain.MergeLine(valid, l)
		}
	}
	return valid, nil
}

// Apply rewrites the slot with next, or deletes it when the cart is empty.
func (g *GuestStorage) Apply(ctx context.Context, _ cart.Mutation, next []domain.CartLine) ([]domain.CartLine, error) {
	if len(next) == 0 {
		if err := g.slot.Delete(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return []domain.CartLine{}, nil
	}
	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("%w: encode guest cart: %v", domain.ErrStorage, err)
	}
	if err := g.slot.Write(ctx, data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return domain.CloneLines(next), nil
}
