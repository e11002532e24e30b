// Package checkout turns the storefront cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"
	"produce-marketplace/internal/storefront/apiclient"

	"go.uber.org/zap"
)

type cartStore interface {
	Lines() []domain.CartLine
	Identity() domain.Identity
	Clear(ctx context.Context) error
	RemoveOrdered(ctx context.Context, ordered []domain.CartLine) ([]domain.CartLine, error)
}

// OrderAPI is the order-creation endpoint.
type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, req apiclient.OrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
}

// PaymentProvider starts payment for an online order and returns where to send the buyer.
type PaymentProvider interface {
	Start(ctx context.Context, order *domain.Order) (string, error)
}

// Request is what the buyer selected at checkout. An empty PaymentMethod means cash on delivery.
type Request struct {
	AddressID     string
	PaymentMethod string
}

// Result carries the created order and, for online payment, the provider URL.
type Result struct {
	Order      *domain.Order
	PaymentURL string
}

// Orchestrator runs one checkout at a time for a Store.
type Orchestrator struct {
	store    cartStore
	orders   OrderAPI
	payments PaymentProvider
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	pending   string
	lastErr   error
	submitted []domain.CartLine
}

func New(store cartStore, orders OrderAPI, payments PaymentProvider, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		orders:   orders,
		payments: payments,
		logger:   logging.OrNop(logger).Named("checkout"),
		now:      time.Now,
		state:    StateIdle,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err is the error that moved the orchestrator to Failed, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// PendingOrder is the online order awaiting settlement, if any.
func (o *Orchestrator) PendingOrder() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.state = StateFailed
	o.pending = ""
	o.submitted = nil
	o.lastErr = err
	o.mu.Unlock()
	o.logger.Info("checkout failed", zap.Error(err))
	return err
}

// Checkout validates the cart and submits an order. Cash-on-delivery orders
// complete immediately and take the ordered lines out of the cart. Online orders start payment and
// wait in AwaitingSettlement with the cart intact. Any failure leaves the cart
// untouched and is not retried.
func (o *Orchestrator) Checkout(ctx context.Context, req Request) (Result, error) {
	o.mu.Lock()
	if o.state.InProgress() {
		o.mu.Unlock()
		return Result{}, domain.ErrCheckoutInProgress
	}
	o.state = StateValidating
	o.pending = ""
	o.lastErr = nil
	o.submitted = nil
	o.mu.Unlock()

	lines := o.store.Lines()
	id := o.store.Identity()
	if len(lines) == 0 {
		return Result{}, o.fail(fmt.Errorf("%w: cart is empty", domain.ErrValidation))
	}
	addressID := strings.TrimSpace(req.AddressID)
	if addressID == "" {
		return Result{}, o.fail(fmt.Errorf("%w: delivery address required", domain.ErrValidation))
	}
	method, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return Result{}, o.fail(fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, req.PaymentMethod))
	}
	if !id.Authenticated || id.Token == "" {
		return Result{}, o.fail(fmt.Errorf("%w: sign in to place an order", domain.ErrAuth))
	}
	if id.Expired(o.now()) {
		return Result{}, o.fail(fmt.Errorf("%w: session expired", domain.ErrAuth))
	}

	o.mu.Lock()
	o.state = StateSubmitting
	o.submitted = lines
	o.mu.Unlock()
	order, err := o.orders.CreateOrder(ctx, id.Token, apiclient.OrderRequest{
		AddressID:     addressID,
		PaymentMethod: method,
		Lines:         apiclient.Refs(lines),
	})
	if err != nil {
		return Result{}, o.fail(err)
	}
	o.logger.Info("order submitted", zap.String("order_id", order.ID), zap.String("payment_method", string(method)), zap.String("status", order.Status.String()))

	if method == domain.PaymentCOD {
		o.complete(ctx, order)
		return Result{Order: order}, nil
	}

	paymentURL, err := o.payments.Start(ctx, order)
	if err != nil {
		return Result{Order: order}, o.fail(fmt.Errorf("start payment for %s: %w", order.ID, err))
	}
	o.mu.Lock()
	o.state = StateAwaitingSettlement
	o.pending = order.ID
	o.mu.Unlock()
	return Result{Order: order, PaymentURL: paymentURL}, nil
}

// complete removes what was ordered from the cart once the order is placed.
// The order's own lines are used when the API returns them, otherwise the
// lines submitted at checkout. A resumed order with neither clears the cart.
// The order already exists, so a failure here is logged rather than returned.
func (o *Orchestrator) complete(ctx context.Context, order *domain.Order) {
	o.mu.Lock()
	ordered := o.submitted
	o.mu.Unlock()
	if len(order.Lines) > 0 {
		ordered = order.Lines
	}

	var err error
	if len(ordered) == 0 {
		err = o.store.Clear(ctx)
	} else {
		_, err = o.store.RemoveOrdered(ctx, ordered)
	}
	if err != nil {
		o.logger.Warn("order placed but cart not updated", zap.String("order_id", order.ID), zap.Error(err))
	}
	o.mu.Lock()
	o.state = StateCompleted
	o.pending = ""
	o.submitted = nil
	o.mu.Unlock()
}

// Resume tracks an online order submitted earlier, for example by a previous
// process, so that ConfirmSettlement can finish it.
func (o *Orchestrator) Resume(orderID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.InProgress() && o.pending != orderID {
		return domain.ErrCheckoutInProgress
	}
	if o.pending != orderID {
		o.submitted = nil
	}
	o.state = StateAwaitingSettlement
	o.pending = orderID
	return nil
}

// Abandon gives up on a pending online payment. The cart is kept.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateAwaitingSettlement {
		o.state = StateFailed
		o.pending = ""
		o.submitted = nil
		o.lastErr = errors.New("payment abandoned")
	}
}

// ConfirmSettlement reads the order status from the API. placed removes the
// ordered lines from the cart and completes; payment_failed fails with the cart untouched; pending keeps waiting.
func (o *Orchestrator) ConfirmSettlement(ctx context.Context, orderID string) (*domain.Order, error) {
	o.mu.Lock()
	if o.state != StateAwaitingSettlement || o.pending != orderID {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: no settlement pending for order %s", domain.ErrConflict, orderID)
	}
	o.mu.Unlock()

	id := o.store.Identity()
	order, err := o.orders.GetOrder(ctx, id.Token, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case domain.OrderStatusPlaced:
		o.complete(ctx, order)
	case domain.OrderStatusPaymentFailed:
		_ = o.fail(fmt.Errorf("payment for order %s failed", orderID))
	}
	return order, nil
}

// AwaitSettlement polls ConfirmSettlement every interval until the order reaches
// a terminal status or ctx ends.
func (o *Orchestrator) AwaitSettlement(ctx context.Context, orderID string, interval time.Duration) (*domain.Order, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		order, err := o.ConfirmSettlement(ctx, orderID)
		switch {
		case err == nil && order.Status.IsTerminal():
			return order, nil
		case err != nil && !errors.Is(err, domain.ErrNetwork):
			return nil, err
		case err != nil:
			o.logger.Debug("settlement poll failed", zap.String("order_id", orderID), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
