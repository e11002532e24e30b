package domain

import (
	"strings"
	"time"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// ParsePaymentMethod defaults an empty value to cash on delivery.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentCOD:
		return PaymentCOD, true
	case PaymentOnline:
		return PaymentOnline, true
	default:
		return "", false
	}
}

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPlaced        OrderStatus = "placed"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
)

// IsTerminal reports whether no further client-visible transition can happen.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPlaced || s == OrderStatusPaymentFailed
}

func (s OrderStatus) String() string {
	return string(s)
}

// InitialStatus is the status an order is stored with. Cash-on-delivery orders
// are placed as soon as they exist; online orders wait for settlement.
func InitialStatus(m PaymentMethod) OrderStatus {
	if m == PaymentCOD {
		return OrderStatusPlaced
	}
	return OrderStatusPending
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPlaced, OrderStatusPaymentFailed},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is produced at checkout. Lines are a snapshot and never change after creation.
type Order struct {
	ID              string        `json:"orderId"`
	CustomerID      string        `json:"customerId,omitempty"`
	Lines           []CartLine    `json:"lines"`
	TotalPriceCents int64         `json:"totalPriceCents"`
	AddressID       string        `json:"addressId"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Status          OrderStatus   `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
