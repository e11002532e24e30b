package storage

import (
	"context"
	"fmt"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/storefront/cart"

	"golang.org/x/sync/singleflight"
)

// CartAPI is the remote cart endpoint as seen by RemoteStorage.
type CartAPI interface {
	GetCart(ctx context.Context, token string) ([]domain.CartLine, error)
	AddItem(ctx context.Context, token, productID string, quantity int) ([]domain.CartLine, error)
	SetQuantity(ctx context.Context, token, productID string, quantity int) ([]domain.CartLine, error)
	RemoveItem(ctx context.Context, token, productID string) ([]domain.CartLine, error)
	ClearCart(ctx context.Context, token string) ([]domain.CartLine, error)
	MergeCart(ctx context.Context, token string, lines []domain.CartLine) ([]domain.CartLine, error)
}

// RemoteStorage forwards each mutation to the remote cart with a bearer token.
// The server's response is the authoritative line set.
type RemoteStorage struct {
	api   CartAPI
	token string
	loads singleflight.Group
}

func NewRemote(api CartAPI, token string) *RemoteStorage {
	return &RemoteStorage{api: api, token: token}
}

func (r *RemoteStorage) checkToken() error {
	if r.token == "" {
		return fmt.Errorf("%w: remote cart requires a bearer token", domain.ErrAuth)
	}
	return nil
}

// Load fetches the remote cart. Concurrent loads share one request, which is
// not cancelled by any single caller; each caller stops waiting when its own
// ctx ends.
func (r *RemoteStorage) Load(ctx context.Context) ([]domain.CartLine, error) {
	if err := r.checkToken(); err != nil {
		return nil, err
	}
	shared := context.WithoutCancel(ctx)
	ch := r.loads.DoChan("cart", func() (interface{}, error) {
		return r.api.GetCart(shared, r.token)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return domain.CloneLines(res.Val.([]domain.CartLine)), nil
	}
}

func (r *RemoteStorage) Apply(ctx context.Context, m cart.Mutation, _ []domain.CartLine) ([]domain.CartLine, error) {
	if err := r.checkToken(); err != nil {
		return nil, err
	}
	switch m.Op {
	case cart.OpAdd:
		return r.api.AddItem(ctx, r.token, m.ProductID, m.Quantity)
	case cart.OpSetQuantity:
		return r.api.SetQuantity(ctx, r.token, m.ProductID, m.Quantity)
	case cart.OpRemove:
		return r.api.RemoveItem(ctx, r.token, m.ProductID)
	case cart.OpClear:
		return r.api.ClearCart(ctx, r.token)
	case cart.OpMerge:
		return r.api.MergeCart(ctx, r.token, m.Lines)
	default:
		return nil, fmt.Errorf("%w: unknown cart operation %q", domain.ErrValidation, m.Op)
	}
}
