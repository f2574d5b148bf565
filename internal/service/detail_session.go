package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// ErrNoOpenProduct means ConfirmAdd was called with no product on display.
var ErrNoOpenProduct = errors.New("no product open")

// SessionState is the detail view lifecycle.
type SessionState int

const (
	SessionClosed SessionState = iota
	SessionLoading
	SessionOpen
)

func (s SessionState) String() string {
	switch s {
	case SessionLoading:
		return "loading"
	case SessionOpen:
		return "open"
	default:
		return "closed"
	}
}

// AddIntent is the upward signal asking the owner to add a product to the
// cart. The session never mutates the cart itself.
type AddIntent func(ctx context.Context, productID string, qty int) error

// DetailSession tracks the single product being inspected in the modal: the
// selected id, its fetched data and the chosen quantity. Only one product is
// live at a time; selecting another overwrites the current one.
type DetailSession struct {
	catalog Catalog
	modal   Modal
	log     *zap.Logger

	mu        sync.Mutex
	state     SessionState
	productID string
	product   *domain.Product
	qty       int
	onAdd     AddIntent
}

func NewDetailSession(catalog Catalog, modal Modal, log *zap.Logger) *DetailSession {
	return &DetailSession{catalog: catalog, modal: modal, log: log, qty: 1}
}

// OnAdd registers the owner's add-intent handler.
func (s *DetailSession) OnAdd(fn AddIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdd = fn
}

// Select binds the session to a product and fetches its details. The session
// shows loading state until the fetch lands, then opens the modal. If another
// Select supersedes this one while the fetch is in flight, the late result is
// dropped.
func (s *DetailSession) Select(ctx context.Context, productID string) error {
	if productID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	s.state = SessionLoading
	s.productID = productID
	s.product = nil
	s.qty = 1
	s.mu.Unlock()

	p, err := s.catalog.GetProduct(ctx, productID)

	s.mu.Lock()
	if s.productID != productID || s.state != SessionLoading {
		// superseded or closed while fetching
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.state = SessionClosed
		s.productID = ""
		s.mu.Unlock()
		s.log.Warn("product fetch failed", zap.String("product_id", productID), zap.Error(err))
		return err
	}
	s.product = p
	s.state = SessionOpen
	s.mu.Unlock()

	s.modal.Open()
	return nil
}

// SetQuantity sets the chosen quantity, clamped to at least one unit.
func (s *DetailSession) SetQuantity(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.qty = n
	s.mu.Unlock()
}

func (s *DetailSession) Quantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qty
}

func (s *DetailSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Product returns the fetched product, or nil before the fetch lands.
func (s *DetailSession) Product() *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.product == nil {
		return nil
	}
	cp := *s.product
	return &cp
}

// ConfirmAdd emits the add-intent for the displayed product and chosen
// quantity. Valid only while open; the handler decides what happens next,
// including closing this session.
func (s *DetailSession) ConfirmAdd(ctx context.Context) error {
	s.mu.Lock()
	if s.state != SessionOpen || s.product == nil {
		s.mu.Unlock()
		return ErrNoOpenProduct
	}
	productID := s.product.ID
	qty := s.qty
	fn := s.onAdd
	s.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx, productID, qty)
}

// Close clears the held product and hides the modal. An in-flight fetch is not
// aborted, but its result will be dropped.
func (s *DetailSession) Close() {
	s.mu.Lock()
	s.state = SessionClosed
	s.productID = ""
	s.product = nil
	s.qty = 1
	s.mu.Unlock()

	s.modal.Close()
}
