package order

import (
	"context"
	"fmt"
	"strings"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"
	cartrepo "produce-marketplace/internal/repository/cart"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Transition(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error)
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type addressRepo interface {
	GetAddress(ctx context.Context, customerID, addressID string) (*domain.Address, error)
}

type Service struct {
	orders    orderRepo
	products  productRepo
	addresses addressRepo
	logger    *zap.Logger
	newID     func() string
}

func New(orders orderRepo, products productRepo, addresses addressRepo, logger *zap.Logger) *Service {
	return &Service{
		orders:    orders,
		products:  products,
		addresses: addresses,
		logger:    logging.OrNop(logger).Named("order_service"),
		newID:     uuid.NewString,
	}
}

// PlaceInput is the order-creation request body.
type PlaceInput struct {
	AddressID     string               `json:"addressId"`
	PaymentMethod string               `json:"paymentMethod"`
	Lines         []cartrepo.LineInput `json:"lines"`
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}

// Place creates an order priced from the catalog in a single insert. Cash-on-delivery
// orders are stored as placed; online orders stay pending until settlement.
func (s *Service) Place(ctx context.Context, customerID string, in PlaceInput) (*domain.Order, error) {
	if len(in.Lines) == 0 {
		return nil, invalid("cart is empty")
	}
	addressID := strings.TrimSpace(in.AddressID)
	if addressID == "" {
		return nil, invalid("addressId required")
	}
	method, ok := domain.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, invalid("unsupported paymentMethod")
	}

	ids := make([]string, 0, len(in.Lines))
	for i, l := range in.Lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, invalid(fmt.Sprintf("lines[%d]: productId required", i))
		}
		if l.Quantity < 1 {
			return nil, invalid(fmt.Sprintf("lines[%d]: quantity must be positive", i))
		}
		ids = append(ids, l.ProductID)
	}

	if _, err := s.addresses.GetAddress(ctx, customerID, addressID); err != nil {
		return nil, fmt.Errorf("address %s: %w", addressID, err)
	}
	catalog, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var lines []domain.CartLine
	for _, l := range in.Lines {
		p, ok := catalog[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", l.ProductID, domain.ErrNotFound)
		}
		lines = domain.MergeLine(lines, p.Line(l.Quantity))
	}

	created, err := s.orders.Create(ctx, domain.Order{
		ID:              s.newID(),
		CustomerID:      customerID,
		Lines:           lines,
		TotalPriceCents: domain.TotalOf(lines),
		AddressID:       addressID,
		PaymentMethod:   method,
		Status:          domain.InitialStatus(method),
	})
	if err != nil {
		s.logger.Error("create order", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

// Get returns the customer's own order; another customer's order is reported as not found.
func (s *Service) Get(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// Settle records the payment provider outcome for an online order.
func (s *Service) Settle(ctx context.Context, orderID string, settled bool) (*domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, invalid("orderId required")
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentOnline {
		return nil, fmt.Errorf("%w: order %s is not paid online", domain.ErrConflict, orderID)
	}
	to := domain.OrderStatusPaymentFailed
	if settled {
		to = domain.OrderStatusPlaced
	}
	updated, err := s.orders.Transition(ctx, orderID, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("settlement recorded", zap.String("order_id", orderID), zap.Bool("settled", settled))
	return updated, nil
}
