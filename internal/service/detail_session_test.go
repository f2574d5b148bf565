package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type fakeCatalog struct {
	list func(ctx context.Context) ([]domain.Product, error)
	get  func(ctx context.Context, id string) (*domain.Product, error)
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if f.list != nil {
		return f.list(ctx)
	}
	return nil, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if f.get != nil {
		return f.get(ctx, id)
	}
	return &domain.Product{ID: id}, nil
}

// fakeModal records show/hide calls.
type fakeModal struct {
	mu     sync.Mutex
	opens  int
	closes int
}

func (m *fakeModal) Open() {
	m.mu.Lock()
	m.opens++
	m.mu.Unlock()
}

func (m *fakeModal) Close() {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
}

func (m *fakeModal) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens, m.closes
}

func widget() *domain.Product {
	return &domain.Product{ID: "P123", Title: "Widget", Price: decimal.NewFromInt(100)}
}

func TestDetailSession_SelectConfirmClose(t *testing.T) {
	ctx := context.Background()
	modal := &fakeModal{}
	catalog := &fakeCatalog{}

	var stateDuringFetch SessionState
	s := NewDetailSession(catalog, modal, zap.NewNop())
	catalog.get = func(ctx context.Context, id string) (*domain.Product, error) {
		stateDuringFetch = s.State()
		return widget(), nil
	}

	if s.State() != SessionClosed {
		t.Fatalf("initial state %v", s.State())
	}

	if err := s.Select(ctx, "P123"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if stateDuringFetch != SessionLoading {
		t.Fatalf("state during fetch = %v, want loading", stateDuringFetch)
	}
	if s.State() != SessionOpen {
		t.Fatalf("state after fetch = %v, want open", s.State())
	}
	if p := s.Product(); p == nil || p.Title != "Widget" {
		t.Fatalf("product = %+v", p)
	}
	if opens, _ := modal.counts(); opens != 1 {
		t.Fatalf("modal opens = %d", opens)
	}

	// default quantity is 1; the intent carries (P123, 1)
	var gotID string
	var gotQty int
	s.OnAdd(func(ctx context.Context, productID string, qty int) error {
		gotID, gotQty = productID, qty
		return nil
	})
	if err := s.ConfirmAdd(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if gotID != "P123" || gotQty != 1 {
		t.Fatalf("intent = (%s, %d), want (P123, 1)", gotID, gotQty)
	}

	s.Close()
	if s.State() != SessionClosed {
		t.Fatalf("state after close = %v", s.State())
	}
	if s.Product() != nil {
		t.Fatalf("product survived close")
	}
	if _, closes := modal.counts(); closes != 1 {
		t.Fatalf("modal closes = %d", closes)
	}
}

func TestDetailSession_QuantityClampedToOne(t *testing.T) {
	s := NewDetailSession(&fakeCatalog{}, &fakeModal{}, zap.NewNop())
	if s.Quantity() != 1 {
		t.Fatalf("default qty = %d", s.Quantity())
	}
	s.SetQuantity(4)
	if s.Quantity() != 4 {
		t.Fatalf("qty = %d", s.Quantity())
	}
	s.SetQuantity(0)
	if s.Quantity() != 1 {
		t.Fatalf("qty after clamp = %d", s.Quantity())
	}
}

func TestDetailSession_SelectWhileOpenOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewDetailSession(&fakeCatalog{
		get: func(ctx context.Context, id string) (*domain.Product, error) {
			return &domain.Product{ID: id, Title: "item " + id}, nil
		},
	}, &fakeModal{}, zap.NewNop())

	if err := s.Select(ctx, "P1"); err != nil {
		t.Fatalf("select P1: %v", err)
	}
	s.SetQuantity(5)
	if err := s.Select(ctx, "P2"); err != nil {
		t.Fatalf("select P2: %v", err)
	}
	if p := s.Product(); p == nil || p.ID != "P2" {
		t.Fatalf("held product = %+v, want P2", p)
	}
	// quantity resets with the new selection
	if s.Quantity() != 1 {
		t.Fatalf("qty after reselect = %d", s.Quantity())
	}
}

func TestDetailSession_SupersededFetchDropped(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	var mu sync.Mutex
	first := true
	s := NewDetailSession(&fakeCatalog{
		get: func(ctx context.Context, id string) (*domain.Product, error) {
			mu.Lock()
			wasFirst := first
			first = false
			mu.Unlock()
			if wasFirst {
				close(started)
				<-release
			}
			return &domain.Product{ID: id}, nil
		},
	}, &fakeModal{}, zap.NewNop())

	go func() { done <- s.Select(ctx, "P1") }()
	<-started

	if err := s.Select(ctx, "P2"); err != nil {
		t.Fatalf("select P2: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("select P1: %v", err)
	}

	if p := s.Product(); p == nil || p.ID != "P2" {
		t.Fatalf("late fetch overwrote newer selection: %+v", p)
	}
}

func TestDetailSession_ConfirmRequiresOpenProduct(t *testing.T) {
	ctx := context.Background()
	s := NewDetailSession(&fakeCatalog{}, &fakeModal{}, zap.NewNop())
	if err := s.ConfirmAdd(ctx); !errors.Is(err, ErrNoOpenProduct) {
		t.Fatalf("confirm while closed: %v", err)
	}
}

func TestDetailSession_FetchErrorClosesSession(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("not found")
	modal := &fakeModal{}
	s := NewDetailSession(&fakeCatalog{
		get: func(ctx context.Context, id string) (*domain.Product, error) {
			return nil, boom
		},
	}, modal, zap.NewNop())

	if err := s.Select(ctx, "P1"); !errors.Is(err, boom) {
		t.Fatalf("select err = %v", err)
	}
	if s.State() != SessionClosed {
		t.Fatalf("state after failed fetch = %v", s.State())
	}
	if opens, _ := modal.counts(); opens != 0 {
		t.Fatalf("modal opened on failed fetch")
	}
}
