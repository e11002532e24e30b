// Package session maps storefront sessions to identities and cart backends.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"produce-marketplace/internal/auth"
	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/storefront/cart"
	"produce-marketplace/internal/storefront/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IdentityFromToken reads the role, subject and expiry from a bearer token.
// The signature is not checked here; the API verifies it on every request.
func IdentityFromToken(token string, now time.Time) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Guest(), nil
	}
	var claims auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: malformed token", domain.ErrAuth)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrAuth)
	}
	id := domain.Identity{
		Authenticated: true,
		Token:         token,
		Role:          claims.Role,
		Subject:       claims.Subject,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	if id.Expired(now) {
		return domain.Identity{}, fmt.Errorf("%w: token expired", domain.ErrAuth)
	}
	return id, nil
}

// Resolver picks guest storage for guests and a remote cart for signed-in customers.
type Resolver struct {
	guest *storage.GuestStorage
	api   storage.CartAPI
	now   func() time.Time
}

func NewResolver(guest *storage.GuestStorage, api storage.CartAPI) *Resolver {
	return &Resolver{guest: guest, api: api, now: time.Now}
}

func (r *Resolver) Resolve(id domain.Identity) (cart.Backend, error) {
	if !id.Authenticated {
		if r.guest == nil {
			return nil, errors.New("guest storage not configured")
		}
		return r.guest, nil
	}
	if id.Expired(r.now()) {
		return nil, fmt.Errorf("%w: session expired", domain.ErrAuth)
	}
	if id.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers have a cart", domain.ErrForbidden)
	}
	if r.api == nil {
		return nil, errors.New("cart api not configured")
	}
	return storage.NewRemote(r.api, id.Token), nil
}

// TokenStore keeps the bearer token between storefront runs.
type TokenStore struct {
	slot storage.Slot
}

func NewTokenStore(slot storage.Slot) *TokenStore {
	return &TokenStore{slot: slot}
}

// Identity returns the stored session, or a guest when none is stored.
// An expired token is dropped and reported as a guest.
func (s *TokenStore) Identity(ctx context.Context, now time.Time) (domain.Identity, error) {
	data, err := s.slot.Read(ctx)
	if err != nil {
		return domain.Guest(), fmt.Errorf("%w: read session: %v", domain.ErrStorage, err)
	}
	id, err := IdentityFromToken(string(data), now)
	if err != nil {
		_ = s.slot.Delete(ctx)
		return domain.Guest(), nil
	}
	return id, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.slot.Write(ctx, []byte(strings.TrimSpace(token))); err != nil {
		return fmt.Errorf("%w: save session: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.slot.Delete(ctx); err != nil {
		return fmt.Errorf("%w: clear session: %v", domain.ErrStorage, err)
	}
	return nil
}

// GuestID returns the id stored in slot, generating and storing a new one on first use.
func GuestID(ctx context.Context, slot storage.Slot) (string, error) {
	data, err := slot.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: read guest id: %v", domain.ErrStorage, err)
	}
	if id := strings.TrimSpace(string(data)); id != "" {
		return id, nil
	}
	id := uuid.NewString()
	if err := slot.Write(ctx, []byte(id)); err != nil {
		return "", fmt.Errorf("%w: save guest id: %v", domain.ErrStorage, err)
	}
	return id, nil
}
