package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"produce-marketplace/internal/domain"
	cartrepo "produce-marketplace/internal/repository/cart"
)

// Service is the remote cart: one cart per authenticated customer.
type Service struct {
	repo        cartRepo
	productRepo productRepo
}

type cartRepo interface {
	List(ctx context.Context, customerID string) ([]domain.CartLine, error)
	Add(ctx context.Context, customerID, productID string, quantity int) error
	SetQuantity(ctx context.Context, customerID, productID string, quantity int) error
	Remove(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
	Merge(ctx context.Context, customerID string, lines []cartrepo.LineInput) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo) *Service {
	return &Service{repo: repo, productRepo: productRepo}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}

func (s *Service) Get(ctx context.Context, customerID string) (domain.Cart, error) {
	lines, err := s.repo.List(ctx, customerID)
	if err != nil {
		return domain.Cart{}, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return domain.Cart{CustomerID: customerID, Lines: lines}, nil
}

// AddItem merges quantity into the line for productID. A zero quantity means one unit.
func (s *Service) AddItem(ctx context.Context, customerID, productID string, quantity int) (domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Cart{}, invalid("productId required")
	}
	if quantity < 0 {
		return domain.Cart{}, invalid("quantity must be positive")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity > domain.MaxLineQuantity {
		return domain.Cart{}, invalid("quantity too large")
	}
	if s.productRepo == nil {
		return domain.Cart{}, errors.New("product repository unavailable")
	}
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return domain.Cart{}, err
	}
	if err := s.repo.Add(ctx, customerID, productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	return s.Get(ctx, customerID)
}

// SetQuantity replaces the quantity of an existing line; quantity < 1 removes it.
func (s *Service) SetQuantity(ctx context.Context, customerID, productID string, quantity int) (domain.Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return domain.Cart{}, invalid("productId required")
	}
	if quantity > domain.MaxLineQuantity {
		return domain.Cart{}, invalid("quantity too large")
	}
	if err := s.repo.SetQuantity(ctx, customerID, productID, quantity); err != nil {
		return domain.Cart{}, err
	}
	return s.Get(ctx, customerID)
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) (domain.Cart, error) {
	if err := s.repo.Remove(ctx, customerID, productID); err != nil {
		return domain.Cart{}, err
	}
	return s.Get(ctx, customerID)
}

func (s *Service) Clear(ctx context.Context, customerID string) (domain.Cart, error) {
	if err := s.repo.Clear(ctx, customerID); err != nil {
		return domain.Cart{}, err
	}
	return domain.Cart{CustomerID: customerID, Lines: []domain.CartLine{}}, nil
}

// Merge folds a guest cart into the customer's cart. Every line is validated
// before anything is written and the write is a single transaction.
func (s *Service) Merge(ctx context.Context, customerID string, lines []cartrepo.LineInput) (domain.Cart, error) {
	if len(lines) == 0 {
		return s.Get(ctx, customerID)
	}
	ids := make([]string, 0, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return domain.Cart{}, invalid(fmt.Sprintf("lines[%d]: productId required", i))
		}
		if l.Quantity < 1 {
			return domain.Cart{}, invalid(fmt.Sprintf("lines[%d]: quantity must be positive", i))
		}
		if l.Quantity > domain.MaxLineQuantity {
			return domain.Cart{}, invalid(fmt.Sprintf("lines[%d]: quantity too large", i))
		}
		ids = append(ids, l.ProductID)
	}
	if s.productRepo == nil {
		return domain.Cart{}, errors.New("product repository unavailable")
	}
	known, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return domain.Cart{}, err
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return domain.Cart{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
	}
	if err := s.repo.Merge(ctx, customerID, lines); err != nil {
		return domain.Cart{}, err
	}
	return s.Get(ctx, customerID)
}
