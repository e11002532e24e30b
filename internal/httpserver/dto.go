package httpserver

import (
	"time"

	"produce-marketplace/internal/domain"
	cartrepo "produce-marketplace/internal/repository/cart"
)

type cartResponse struct {
	Lines           []domain.CartLine `json:"lines"`
	TotalPriceCents int64             `json:"totalPriceCents"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartResponse{Lines: lines, TotalPriceCents: cart.Total()}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type mergeRequest struct {
	Lines []cartrepo.LineInput `json:"lines"`
}

type settlementRequest struct {
	OrderID string `json:"orderId"`
	Settled bool   `json:"settled"`
}

type orderResponse struct {
	OrderID         string               `json:"orderId"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	AddressID       string               `json:"addressId"`
	TotalPriceCents int64                `json:"totalPriceCents"`
	Lines           []domain.CartLine    `json:"lines"`
	CreatedAt       time.Time            `json:"createdAt"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		OrderID:         o.ID,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		AddressID:       o.AddressID,
		TotalPriceCents: o.TotalPriceCents,
		Lines:           o.Lines,
		CreatedAt:       o.CreatedAt,
	}
}
