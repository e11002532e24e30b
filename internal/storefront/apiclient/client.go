// Package apiclient talks to the marketplace API on behalf of a storefront session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger).Named("apiclient") }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "marketplace-api",
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only transport failures and 5xx responses count against the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrNetwork)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit state changed", zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return c
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusError maps an HTTP status back onto the domain error taxonomy.
func statusError(status int, body []byte) error {
	var payload apiError
	msg := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	var kind error
	switch {
	case status == http.StatusBadRequest:
		kind = domain.ErrValidation
	case status == http.StatusUnauthorized:
		kind = domain.ErrAuth
	case status == http.StatusForbidden:
		kind = domain.ErrForbidden
	case status == http.StatusNotFound:
		kind = domain.ErrNotFound
	case status == http.StatusConflict:
		kind = domain.ErrConflict
	default:
		kind = domain.ErrNetwork
	}
	return fmt.Errorf("%w: %d %s", kind, status, msg)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, path, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, statusError(resp.StatusCode, data)
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrNetwork, path, err)
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
