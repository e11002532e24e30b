// Package cart holds the storefront's live cart and keeps it in step with
// whichever backend the current identity selects.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"

	"go.uber.org/zap"
)

// Store is the single owner of the live cart lines. A mutex is held across the
// in-memory change and its persistence, so mutations are applied and persisted
// in call order.
type Store struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	identity domain.Identity
	backend  Backend
	resolver Resolver
	notifier Notifier
	logger   *zap.Logger
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(logger).Named("cart_store") }
}

// New resolves the backend for id and loads the persisted cart. An unreadable
// guest slot starts an empty cart; any other load failure is returned.
func New(ctx context.Context, resolver Resolver, id domain.Identity, opts ...Option) (*Store, error) {
	s := &Store{
		resolver: resolver,
		notifier: nopNotifier{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	backend, err := resolver.Resolve(id)
	if err != nil {
		return nil, err
	}
	lines, err := backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrStorage) {
			return nil, err
		}
		s.logger.Warn("guest cart unreadable, starting empty", zap.Error(err))
		lines = nil
	}
	s.backend = backend
	s.identity = id
	s.lines = lines
	return s, nil
}

// Lines returns a copy of the current lines.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLines(s.lines)
}

// Total is the sum of unit price times quantity over the current lines.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TotalOf(s.lines)
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// AddItem adds quantity units of product, merging into an existing line.
// A zero quantity means one unit.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) ([]domain.CartLine, error) {
	if strings.TrimSpace(product.ID) == "" {
		return nil, fmt.Errorf("%w: product id required", domain.ErrValidation)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if quantity == 0 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := domain.AddQuantity(domain.QuantityIn(s.lines, product.ID), quantity); err != nil {
		s.emit(Event{Kind: EventFailed, Op: OpAdd, ProductID: product.ID, Err: err})
		return nil, err
	}
	line := product.Line(quantity)
	next := domain.MergeLine(domain.CloneLines(s.lines), line)
	return s.commit(ctx, Mutation{Op: OpAdd, ProductID: product.ID, Quantity: quantity, Line: line}, next)
}

// RemoveItem deletes the line for productID. Removing an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, productID)
}

func (s *Store) remove(ctx context.Context, productID string) ([]domain.CartLine, error) {
	i := domain.IndexOf(s.lines, productID)
	if i < 0 {
		return domain.CloneLines(s.lines), nil
	}
	next := domain.CloneLines(s.lines)
	next = append(next[:i], next[i+1:]...)
	return s.commit(ctx, Mutation{Op: OpRemove, ProductID: productID}, next)
}

// UpdateQuantity sets the quantity of an existing line. A quantity below one
// removes the line; updating an absent line is ErrNotFound.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return s.remove(ctx, productID)
	}
	if quantity > domain.MaxLineQuantity {
		err := fmt.Errorf("%w: quantity may not exceed %d", domain.ErrValidation, domain.MaxLineQuantity)
		s.emit(Event{Kind: EventFailed, Op: OpSetQuantity, ProductID: productID, Err: err})
		return nil, err
	}
	i := domain.IndexOf(s.lines, productID)
	if i < 0 {
		err := fmt.Errorf("product %s not in cart: %w", productID, domain.ErrNotFound)
		s.emit(Event{Kind: EventFailed, Op: OpSetQuantity, ProductID: productID, Err: err})
		return nil, err
	}
	next := domain.CloneLines(s.lines)
	next[i].Quantity = quantity
	return s.commit(ctx, Mutation{Op: OpSetQuantity, ProductID: productID, Quantity: quantity}, next)
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.commit(ctx, Mutation{Op: OpClear}, []domain.CartLine{})
	return err
}

// RemoveOrdered takes the quantities of ordered out of the cart. Lines added
// after the order was submitted, and any units beyond the ordered quantity,
// stay in the cart. When nothing remains the cart is cleared in one mutation.
func (s *Store) RemoveOrdered(ctx context.Context, ordered []domain.CartLine) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := domain.CloneLines(s.lines)
	var touched []string
	for _, o := range ordered {
		i := domain.IndexOf(remaining, o.ProductID)
		if i < 0 {
			continue
		}
		touched = append(touched, o.ProductID)
		remaining[i].Quantity -= o.Quantity
		if remaining[i].Quantity < 1 {
			remaining = append(remaining[:i], remaining[i+1:]...)
		}
	}
	if len(touched) == 0 {
		return domain.CloneLines(s.lines), nil
	}
	if len(remaining) == 0 {
		return s.commit(ctx, Mutation{Op: OpClear}, []domain.CartLine{})
	}

	for _, id := range touched {
		i := domain.IndexOf(s.lines, id)
		if i < 0 {
			continue
		}
		want := domain.QuantityIn(remaining, id)
		if want < 1 {
			if _, err := s.remove(ctx, id); err != nil {
				return nil, err
			}
			continue
		}
		if s.lines[i].Quantity == want {
			continue
		}
		next := domain.CloneLines(s.lines)
		next[i].Quantity = want
		if _, err := s.commit(ctx, Mutation{Op: OpSetQuantity, ProductID: id, Quantity: want}, next); err != nil {
			return nil, err
		}
	}
	return domain.CloneLines(s.lines), nil
}

// Reload replaces the in-memory lines with the backend's persisted state.
func (s *Store) Reload(ctx context.Context) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.lines = lines
	return domain.CloneLines(lines), nil
}

// commit persists next through the active backend. On success the backend's
// result becomes the cart. A local storage failure keeps next in memory; any
// other failure leaves the cart as it was.
func (s *Store) commit(ctx context.Context, m Mutation, next []domain.CartLine) ([]domain.CartLine, error) {
	persisted, err := s.backend.Apply(ctx, m, next)
	switch {
	case err == nil:
		s.lines = persisted
		s.emit(Event{Kind: EventApplied, Op: m.Op, ProductID: m.ProductID})
	case errors.Is(err, domain.ErrStorage):
		s.lines = next
		s.logger.Warn("cart persisted in memory only", zap.String("op", string(m.Op)), zap.Error(err))
		s.emit(Event{Kind: EventDegraded, Op: m.Op, ProductID: m.ProductID, Err: err})
	default:
		s.logger.Info("cart mutation rolled back", zap.String("op", string(m.Op)), zap.String("product_id", m.ProductID), zap.Error(err))
		s.emit(Event{Kind: EventFailed, Op: m.Op, ProductID: m.ProductID, Err: err})
		return nil, err
	}
	return domain.CloneLines(s.lines), nil
}

func (s *Store) emit(e Event) {
	e.Lines = len(s.lines)
	e.Total = domain.TotalOf(s.lines)
	s.notifier.Notify(e)
}
