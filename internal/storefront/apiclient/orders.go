package apiclient

import (
	"context"
	"net/http"
	"time"

	"produce-marketplace/internal/domain"
)

// OrderRequest is the order-creation payload.
type OrderRequest struct {
	AddressID     string               `json:"addressId"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Lines         []LineRef            `json:"lines"`
}

type orderPayload struct {
	OrderID         string               `json:"orderId"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	AddressID       string               `json:"addressId"`
	TotalPriceCents int64                `json:"totalPriceCents"`
	Lines           []domain.CartLine    `json:"lines"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func (p orderPayload) order() *domain.Order {
	return &domain.Order{
		ID:              p.OrderID,
		Lines:           p.Lines,
		TotalPriceCents: p.TotalPriceCents,
		AddressID:       p.AddressID,
		PaymentMethod:   p.PaymentMethod,
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
	}
}

func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (*domain.Order, error) {
	var out orderPayload
	if err := c.do(ctx, http.MethodPost, "/api/orders", token, req, &out); err != nil {
		return nil, err
	}
	return out.order(), nil
}

func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	var out orderPayload
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+escape(orderID), token, nil, &out); err != nil {
		return nil, err
	}
	return out.order(), nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out struct {
		Results []domain.Product `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListAddresses(ctx context.Context, token string) ([]domain.Address, error) {
	var out struct {
		Results []domain.Address `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me/addresses", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
