package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/storefront/cart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	calls    []string
	tokens   []string
	lines    []domain.CartLine
	err      error
	getCalls atomic.Int32
	getDelay time.Duration
	getBlock chan struct{}
	getErrs  []error
}

func (f *fakeAPI) record(call, token string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.tokens = append(f.tokens, token)
	return domain.CloneLines(f.lines), f.err
}

func (f *fakeAPI) GetCart(ctx context.Context, token string) ([]domain.CartLine, error) {
	f.getCalls.Add(1)
	time.Sleep(f.getDelay)
	if f.getBlock != nil {
		select {
		case <-f.getBlock:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	f.getErrs = append(f.getErrs, ctx.Err())
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.record("get", token)
}

func (f *fakeAPI) AddItem(_ context.Context, token, productID string, quantity int) ([]domain.CartLine, error) {
	return f.record("add:"+productID, token)
}

func (f *fakeAPI) SetQuantity(_ context.Context, token, productID string, _ int) ([]domain.CartLine, error) {
	return f.record("set:"+productID, token)
}

func (f *fakeAPI) RemoveItem(_ context.Context, token, productID string) ([]domain.CartLine, error) {
	return f.record("remove:"+productID, token)
}

func (f *fakeAPI) ClearCart(_ context.Context, token string) ([]domain.CartLine, error) {
	return f.record("clear", token)
}

func (f *fakeAPI) MergeCart(_ context.Context, token string, lines []domain.CartLine) ([]domain.CartLine, error) {
	return f.record("merge", token)
}

func TestRemoteStorageRequiresToken(t *testing.T) {
	api := &fakeAPI{}
	r := NewRemote(api, "")

	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, err = r.Apply(context.Background(), cart.Mutation{Op: cart.OpAdd, ProductID: "a", Quantity: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Empty(t, api.calls)
}

func TestRemoteStorageServerResponseWins(t *testing.T) {
	api := &fakeAPI{lines: []domain.CartLine{{ProductID: "a", Quantity: 5}}}
	r := NewRemote(api, "tok")

	local := []domain.CartLine{{ProductID: "a", Quantity: 1}}
	got, err := r.Apply(context.Background(), cart.Mutation{Op: cart.OpAdd, ProductID: "a", Quantity: 1}, local)
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Quantity)
	assert.Equal(t, []string{"add:a"}, api.calls)
	assert.Equal(t, []string{"tok"}, api.tokens)
}

func TestRemoteStorageDispatch(t *testing.T) {
	api := &fakeAPI{}
	r := NewRemote(api, "tok")
	ctx := context.Background()

	for _, m := range []cart.Mutation{
		{Op: cart.OpSetQuantity, ProductID: "a", Quantity: 2},
		{Op: cart.OpRemove, ProductID: "b"},
		{Op: cart.OpClear},
		{Op: cart.OpMerge, Lines: []domain.CartLine{{ProductID: "c", Quantity: 1}}},
	} {
		_, err := r.Apply(ctx, m, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"set:a", "remove:b", "clear", "merge"}, api.calls)

	_, err := r.Apply(ctx, cart.Mutation{Op: "bogus"}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRemoteStorageLoadCoalesces(t *testing.T) {
	api := &fakeAPI{lines: []domain.CartLine{{ProductID: "a", Quantity: 1}}, getDelay: 50 * time.Millisecond}
	r := NewRemote(api, "tok")

	var wg sync.WaitGroup
	results := make([][]domain.CartLine, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lines, err := r.Load(context.Background())
			assert.NoError(t, err)
			results[i] = lines
		}(i)
	}
	wg.Wait()

	assert.Less(t, api.getCalls.Load(), int32(8))
	results[0][0].Quantity = 99
	assert.Equal(t, 1, results[1][0].Quantity, "callers must not share line storage")
}

func TestRemoteStorageLoadSurvivesCancelledCaller(t *testing.T) {
	api := &fakeAPI{lines: []domain.CartLine{{ProductID: "a", Quantity: 1}}, getBlock: make(chan struct{})}
	r := NewRemote(api, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.Load(ctx)
		first <- err
	}()
	require.Eventually(t, func() bool { return api.getCalls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		lines []domain.CartLine
		err   error
	}
	second := make(chan result, 1)
	go func() {
		lines, err := r.Load(context.Background())
		second <- result{lines, err}
	}()

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(api.getBlock)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []domain.CartLine{{ProductID: "a", Quantity: 1}}, got.lines)

	api.mu.Lock()
	defer api.mu.Unlock()
	for _, err := range api.getErrs {
		assert.NoError(t, err, "the shared request must not inherit a caller's cancellation")
	}
}
