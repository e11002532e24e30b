// Package payment is the boundary to the external payment provider.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"produce-marketplace/internal/domain"
)

// HostedCheckout sends the buyer to the provider's hosted page. Settlement is
// reported back to the API through the settlement webhook.
type HostedCheckout struct {
	base *url.URL
}

func NewHostedCheckout(baseURL string) (*HostedCheckout, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse payment url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("payment url %q must be absolute", baseURL)
	}
	return &HostedCheckout{base: u}, nil
}

// Start returns the URL that begins payment for order.
func (h *HostedCheckout) Start(_ context.Context, order *domain.Order) (string, error) {
	if order == nil || order.ID == "" {
		return "", errors.New("order reference required")
	}
	u := *h.base
	q := u.Query()
	q.Set("reference", order.ID)
	q.Set("amount", strconv.FormatInt(order.TotalPriceCents, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
