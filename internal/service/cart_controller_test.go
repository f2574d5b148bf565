package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// fakeCartAPI lets each test script the upstream cart endpoints.
type fakeCartAPI struct {
	mu    sync.Mutex
	calls []string

	getCart func(ctx context.Context) (*domain.Cart, error)
	add     func(ctx context.Context, productID string, qty int) error
	update  func(ctx context.Context, itemID, productID string, qty int) error
	remove  func(ctx context.Context, itemID string) error
	clear   func(ctx context.Context) error
}

func (f *fakeCartAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeCartAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCartAPI) GetCart(ctx context.Context) (*domain.Cart, error) {
	f.record("get")
	if f.getCart != nil {
		return f.getCart(ctx)
	}
	return &domain.Cart{}, nil
}

func (f *fakeCartAPI) AddCartItem(ctx context.Context, productID string, qty int) error {
	f.record("add " + productID)
	if f.add != nil {
		return f.add(ctx, productID, qty)
	}
	return nil
}

func (f *fakeCartAPI) UpdateCartItem(ctx context.Context, itemID, productID string, qty int) error {
	f.record("update " + itemID)
	if f.update != nil {
		return f.update(ctx, itemID, productID, qty)
	}
	return nil
}

func (f *fakeCartAPI) RemoveCartItem(ctx context.Context, itemID string) error {
	f.record("remove " + itemID)
	if f.remove != nil {
		return f.remove(ctx, itemID)
	}
	return nil
}

func (f *fakeCartAPI) ClearCart(ctx context.Context) error {
	f.record("clear")
	if f.clear != nil {
		return f.clear(ctx)
	}
	return nil
}

func cartWith(rows ...domain.CartItem) *domain.Cart {
	return &domain.Cart{Carts: rows}
}

func TestCartController_AddItem_BusyMarkerLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	if c.Busy() != "" {
		t.Fatalf("busy before call: %q", c.Busy())
	}

	// the marker must still be set while the tail refresh runs
	var busyDuringRefresh string
	fake.getCart = func(ctx context.Context) (*domain.Cart, error) {
		busyDuringRefresh = c.Busy()
		return cartWith(domain.CartItem{ID: "row1", ProductID: "P1", Qty: 1}), nil
	}

	var qtySent int
	fake.add = func(ctx context.Context, productID string, qty int) error {
		if got := c.Busy(); got != "P1" {
			t.Fatalf("busy during add = %q, want P1", got)
		}
		qtySent = qty
		return nil
	}

	if err := c.AddItem(ctx, "P1", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if qtySent != 2 {
		t.Fatalf("qty sent = %d", qtySent)
	}
	if busyDuringRefresh != "P1" {
		t.Fatalf("busy during refresh = %q, want P1", busyDuringRefresh)
	}
	if c.Busy() != "" {
		t.Fatalf("busy after call: %q", c.Busy())
	}
	if got := c.Cart(); len(got.Carts) != 1 || got.Carts[0].ID != "row1" {
		t.Fatalf("mirror not replaced: %+v", got)
	}
}

func TestCartController_AddItem_DefaultQuantity(t *testing.T) {
	ctx := context.Background()
	for _, qty := range []int{0, -3} {
		fake := &fakeCartAPI{}
		var sent int
		fake.add = func(ctx context.Context, productID string, qty int) error {
			sent = qty
			return nil
		}
		c := NewCartController(fake, zap.NewNop())
		if err := c.AddItem(ctx, "P1", qty); err != nil {
			t.Fatalf("add with qty %d: %v", qty, err)
		}
		if sent != 1 {
			t.Fatalf("qty %d sent as %d, want 1", qty, sent)
		}
	}
}

func TestCartController_AddItem_ClosesDetail(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	closed := false
	c.BindDetail(closerFunc(func() { closed = true }))

	if err := c.AddItem(ctx, "P1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !closed {
		t.Fatalf("detail session not closed after add")
	}
}

type closerFunc func()

func (f closerFunc) Close() { f() }

func TestCartController_UpdateItem_WritesThenRefreshes(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	var gotItemID, gotProductID string
	var gotQty int
	fake.update = func(ctx context.Context, itemID, productID string, qty int) error {
		gotItemID, gotProductID, gotQty = itemID, productID, qty
		return nil
	}
	var busyDuringRefresh string
	fake.getCart = func(ctx context.Context) (*domain.Cart, error) {
		busyDuringRefresh = c.Busy()
		return &domain.Cart{}, nil
	}

	item := domain.CartItem{ID: "row9", Qty: 3, Product: domain.Product{ID: "P1"}}
	if err := c.UpdateItem(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotItemID != "row9" || gotProductID != "P1" || gotQty != 3 {
		t.Fatalf("update sent (%s, %s, %d)", gotItemID, gotProductID, gotQty)
	}
	if busyDuringRefresh != "row9" {
		t.Fatalf("busy during refresh = %q, want row9", busyDuringRefresh)
	}
	if calls := fake.Calls(); len(calls) != 2 || calls[0] != "update row9" || calls[1] != "get" {
		t.Fatalf("call order: %v", calls)
	}
	if c.Busy() != "" {
		t.Fatalf("busy after update: %q", c.Busy())
	}
}

func TestCartController_RemoveAll_IdempotentAndSentinelMarker(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	fake.clear = func(ctx context.Context) error {
		if got := c.Busy(); got != BusyClearAll {
			t.Fatalf("busy during clear = %q, want %q", got, BusyClearAll)
		}
		return nil
	}

	for i := 0; i < 2; i++ {
		if err := c.RemoveAll(ctx); err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
		if got := c.Cart(); len(got.Carts) != 0 {
			t.Fatalf("cart not empty after clear #%d", i+1)
		}
	}
	if c.Busy() != "" {
		t.Fatalf("busy after clears: %q", c.Busy())
	}
}

func TestCartController_RejectsOverlappingMutations(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	// a second mutation fired while the first is mid-flight must be refused
	var overlapErr error
	fake.remove = func(ctx context.Context, itemID string) error {
		overlapErr = c.AddItem(ctx, "P2", 1)
		return nil
	}

	if err := c.RemoveItem(ctx, "row1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !errors.Is(overlapErr, ErrBusy) {
		t.Fatalf("overlapping mutation: %v, want ErrBusy", overlapErr)
	}
}

func TestCartController_MarkerClearedOnFailure(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	boom := errors.New("upstream down")
	fake.add = func(ctx context.Context, productID string, qty int) error { return boom }

	if err := c.AddItem(ctx, "P1", 1); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if c.Busy() != "" {
		t.Fatalf("busy marker stuck after failure: %q", c.Busy())
	}
}

func TestCartController_StaleRefreshDropped(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCartAPI{}
	c := NewCartController(fake, zap.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	old := cartWith(domain.CartItem{ID: "stale", ProductID: "P1", Qty: 1})
	fresh := cartWith(domain.CartItem{ID: "fresh", ProductID: "P2", Qty: 2})

	var first = true
	var mu sync.Mutex
	fake.getCart = func(ctx context.Context) (*domain.Cart, error) {
		mu.Lock()
		wasFirst := first
		first = false
		mu.Unlock()
		if wasFirst {
			close(started)
			<-release
			return old, nil
		}
		return fresh, nil
	}

	go func() { done <- c.Refresh(ctx) }()
	<-started

	// a newer refresh completes while the first is still in flight
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	if got := c.Cart(); len(got.Carts) != 1 || got.Carts[0].ID != "fresh" {
		t.Fatalf("stale refresh overwrote newer state: %+v", got.Carts)
	}
}

func TestCartController_InvalidInput(t *testing.T) {
	ctx := context.Background()
	c := NewCartController(&fakeCartAPI{}, zap.NewNop())

	if err := c.AddItem(ctx, "", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty product id: %v", err)
	}
	if err := c.RemoveItem(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty item id: %v", err)
	}
	bad := domain.CartItem{ID: "row1", Qty: 0, Product: domain.Product{ID: "P1"}}
	if err := c.UpdateItem(ctx, bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero qty update: %v", err)
	}
}
