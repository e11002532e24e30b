package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"produce-marketplace/internal/auth"
	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/storefront/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, subject string, role domain.Role, ttl time.Duration) string {
	t.Helper()
	token, err := auth.NewTokenManager("test-secret").Issue(subject, role, ttl)
	require.NoError(t, err)
	return token
}

func TestIdentityFromToken(t *testing.T) {
	now := time.Now()
	token := issue(t, "cust-1", domain.RoleCustomer, time.Hour)

	id, err := IdentityFromToken(token, now)
	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, "cust-1", id.Subject)
	assert.Equal(t, domain.RoleCustomer, id.Role)
	assert.Equal(t, token, id.Token)
	assert.WithinDuration(t, now.Add(time.Hour), id.ExpiresAt, 2*time.Second)

	guest, err := IdentityFromToken("  ", now)
	require.NoError(t, err)
	assert.False(t, guest.Authenticated)

	_, err = IdentityFromToken("not-a-jwt", now)
	require.ErrorIs(t, err, domain.ErrAuth)

	_, err = IdentityFromToken(token, now.Add(2*time.Hour))
	require.ErrorIs(t, err, domain.ErrAuth)
}

type nopAPI struct{ storage.CartAPI }

func TestResolver(t *testing.T) {
	guest := storage.NewGuest(storage.NewFileSlot(filepath.Join(t.TempDir(), "cart.json")))
	r := NewResolver(guest, nopAPI{})

	b, err := r.Resolve(domain.Guest())
	require.NoError(t, err)
	assert.Same(t, guest, b)

	b, err = r.Resolve(domain.Identity{Authenticated: true, Token: "tok", Role: domain.RoleCustomer, Subject: "cust-1"})
	require.NoError(t, err)
	assert.IsType(t, &storage.RemoteStorage{}, b)

	_, err = r.Resolve(domain.Identity{Authenticated: true, Token: "tok", Role: domain.RoleFarmer, Subject: "farmer-1"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = r.Resolve(domain.Identity{
		Authenticated: true, Token: "tok", Role: domain.RoleCustomer, Subject: "cust-1",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.ErrorIs(t, err, domain.ErrAuth)
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session")
	s := NewTokenStore(storage.NewFileSlot(path))

	id, err := s.Identity(ctx, time.Now())
	require.NoError(t, err)
	assert.False(t, id.Authenticated)

	token := issue(t, "cust-1", domain.RoleCustomer, time.Hour)
	require.NoError(t, s.Save(ctx, token+"\n"))

	id, err = s.Identity(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "cust-1", id.Subject)
	assert.Equal(t, token, id.Token)

	id, err = s.Identity(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, id.Authenticated)
	assert.NoFileExists(t, path)

	require.NoError(t, s.Save(ctx, token))
	require.NoError(t, s.Clear(ctx))
	assert.NoFileExists(t, path)
}

func TestGuestIDIsStable(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewFileSlot(filepath.Join(t.TempDir(), "guest_id"))

	first, err := GuestID(ctx, slot)
	require.NoError(t, err)
	assert.Len(t, first, 36)

	second, err := GuestID(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
