package cart

import (
	"context"

	"produce-marketplace/internal/domain"
)

// Op names a cart mutation.
type Op string

const (
	OpAdd         Op = "add"
	OpSetQuantity Op = "set_quantity"
	OpRemove      Op = "remove"
	OpClear       Op = "clear"
	OpMerge       Op = "merge"
)

// Mutation describes one change to the cart as issued by the Store.
type Mutation struct {
	Op        Op
	ProductID string
	Quantity  int
	// Line carries the full product line for OpAdd.
	Line domain.CartLine
	// Lines carries the guest lines for OpMerge.
	Lines []domain.CartLine
}

// Backend persists cart mutations. Implementations are picked by a Resolver
// and never change while a call is in flight.
type Backend interface {
	// Load returns the persisted lines at session start or after an identity change.
	Load(ctx context.Context) ([]domain.CartLine, error)
	// Apply persists m. next is the locally computed result; the returned lines
	// are authoritative and replace the in-memory cart.
	Apply(ctx context.Context, m Mutation, next []domain.CartLine) ([]domain.CartLine, error)
}

// Resolver selects the Backend for an identity.
type Resolver interface {
	Resolve(id domain.Identity) (Backend, error)
}
