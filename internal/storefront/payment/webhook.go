package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SettlementNotifier delivers a provider settlement callback to the API.
// cmd/storefront uses it to stand in for the provider during development.
type SettlementNotifier struct {
	endpoint string
	secret   string
	http     *http.Client
}

func NewSettlementNotifier(apiURL, secret string, timeout time.Duration) *SettlementNotifier {
	return &SettlementNotifier{
		endpoint: apiURL + "/api/payments/settlement",
		secret:   secret,
		http:     &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (n *SettlementNotifier) Notify(ctx context.Context, orderID string, settled bool) error {
	body, err := json.Marshal(map[string]any{"orderId": orderID, "settled": settled})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", n.secret)
	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("settlement rejected: %d %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
