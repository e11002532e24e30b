package apiclient

import (
	"context"
	"net/http"

	"produce-marketplace/internal/domain"
)

// LineRef references a catalog product by id and quantity.
type LineRef struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Refs strips cart lines down to product references.
func Refs(lines []domain.CartLine) []LineRef {
	refs := make([]LineRef, 0, len(lines))
	for _, l := range lines {
		refs = append(refs, LineRef{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return refs
}

type cartPayload struct {
	Lines           []domain.CartLine `json:"lines"`
	TotalPriceCents int64             `json:"totalPriceCents"`
}

func (p cartPayload) lines() []domain.CartLine {
	if p.Lines == nil {
		return []domain.CartLine{}
	}
	return p.Lines
}

func (c *Client) GetCart(ctx context.Context, token string) ([]domain.CartLine, error) {
	var out cartPayload
	if err := c.do(ctx, http.MethodGet, "/api/cart", token, nil, &out); err != nil {
		return nil, err
	}
	return out.lines(), nil
}

func (c *Client) AddItem(ctx context.Context, token, productID string, quantity int) ([]domain.CartLine, error) {
	var out cartPayload
	if err := c.do(ctx, http.MethodPost, "/api/cart/items", token, LineRef{ProductID: productID, Quantity: quantity}, &out); err != nil {
		return nil, err
	}
	return out.lines(), nil
}

func (c *Client) SetQuantity(ctx context.Context, token, productID string, quantity int) ([]domain.CartLine, error) {
	var out cartPayload
	body := map[string]int{"quantity": quantity}
	if err := c.do(ctx, http.MethodPatch, "/api/cart/items/"+escape(productID), token, body, &out); err != nil {
		return nil, err
	}
	return out.lines(), nil
}

func (c *Client) RemoveItem(ctx context.Context, token, productID string) ([]domain.CartLine, error) {
	var out cartPayload
	if err := c.do(ctx, http.MethodDelete, "/api/cart/items/"+escape(productID), token, nil, &out); err != nil {
		return nil, err
	}
	return out.lines(), nil
}

func (c *Client) ClearCart(ctx context.Context, token string) ([]domain.CartLine, error) {
	var out cartPayload
	if err := c.do(ctx, http.MethodDelete, "/api/cart", token, nil, &out); err != nil {
		return nil, err
	}
	return out.lines(), nil
}

// MergeCart folds lines into the remote cart in one all-or-nothing request.
func (c *Client) MergeCart(ctx context.Context, token string, lines []domain.CartLine) ([]domain.CartLine, error) {
	var out cartPayload
	body := map[string][]LineRef{"lines": Refs(lines)}
	if err := c.do(ctx, http.MethodPost, "/api/cart/merge", token, body, &out); err != nil {
		return nil, err
	}
	return out.lines(), nil
}
