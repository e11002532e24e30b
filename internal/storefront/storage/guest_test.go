package storage

import (
	"context"
	"errors"
	"testing"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/storefront/cart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSlot struct {
	data     []byte
	readErr  error
	writeErr error
	writes   int
}

func (m *memSlot) Read(context.Context) ([]byte, error) {
	return m.data, m.readErr
}

func (m *memSlot) Write(_ context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memSlot) Delete(context.Context) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data = nil
	return nil
}

func TestGuestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := &memSlot{}
	g := NewGuest(slot)

	lines, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	next := []domain.CartLine{{ProductID: "a", Name: "Apple", UnitPriceCents: 100, Quantity: 2}, {ProductID: "b", Quantity: 1}}
	got, err := g.Apply(ctx, cart.Mutation{Op: cart.OpAdd}, next)
	require.NoError(t, err)
	assert.Equal(t, next, got)

	loaded, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, loaded, "order and fields survive a round trip")

	_, err = g.Apply(ctx, cart.Mutation{Op: cart.OpClear}, nil)
	require.NoError(t, err)
	assert.Nil(t, slot.data)
}

func TestGuestStorageFailuresAreStorageErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewGuest(&memSlot{readErr: errors.New("disk gone")}).Load(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = NewGuest(&memSlot{data: []byte("{not json")}).Load(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = NewGuest(&memSlot{writeErr: errors.New("quota")}).Apply(ctx, cart.Mutation{Op: cart.OpAdd}, []domain.CartLine{{ProductID: "a", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestGuestStorageDropsInvalidLines(t *testing.T) {
	slot := &memSlot{data: []byte(`[{"productId":"a","quantity":0},{"productId":"","quantity":2},{"productId":"b","quantity":1}]`)}
	lines, err := NewGuest(slot).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "b", lines[0].ProductID)
}

func TestGuestStorageFoldsRepeatedProducts(t *testing.T) {
	slot := &memSlot{data: []byte(`[{"productId":"a","name":"Apple","quantity":1},{"productId":"b","quantity":4},{"productId":"a","name":"Apple","quantity":2}]`)}
	lines, err := NewGuest(slot).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "b", lines[1].ProductID)

	s, err := cart.New(context.Background(), guestOnly{NewGuest(slot)}, domain.Guest())
	require.NoError(t, err)
	remaining, err := s.RemoveItem(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, remaining, 1, "removing a product removes every unit of it")
	assert.Equal(t, "b", remaining[0].ProductID)
}

type guestOnly struct{ g *GuestStorage }

func (r guestOnly) Resolve(domain.Identity) (cart.Backend, error) { return r.g, nil }
