package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy rejects a mutation while another one is still in flight. A single
	// marker drives the per-row spinners, so overlapping mutations would leave
	// the mirror racing against itself.
	ErrBusy = errors.New("cart mutation in progress")
)

// BusyClearAll is the marker value for the bulk clear action, which has no row
// id of its own.
const BusyClearAll = "deleteAll"

// DetailCloser shuts an open product detail view. Satisfied by DetailSession.
type DetailCloser interface {
	Close()
}

// CartController owns the local mirror of the server cart. Every mutation is
// write-then-reread: the server computes all pricing, so the mirror is only
// ever replaced wholesale, never patched.
type CartController struct {
	api CartAPI
	log *zap.Logger

	mu      sync.Mutex
	cart    domain.Cart
	busy    string
	seq     uint64
	applied uint64

	detail DetailCloser
}

func NewCartController(api CartAPI, log *zap.Logger) *CartController {
	return &CartController{api: api, log: log}
}

// BindDetail registers the detail view to close once an add lands.
func (c *CartController) BindDetail(d DetailCloser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = d
}

// Cart returns a snapshot of the last known server state.
func (c *CartController) Cart() domain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.cart
	out.Carts = append([]domain.CartItem(nil), c.cart.Carts...)
	return out
}

// Busy returns the id of the row currently mid-mutation, BusyClearAll for a
// bulk clear, or "" when idle.
func (c *CartController) Busy() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Refresh replaces the mirror with the authoritative cart. Responses apply in
// request order: a refresh that was overtaken by a newer one is dropped, so a
// slow reply can never roll the mirror back.
func (c *CartController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	gen := c.seq
	c.mu.Unlock()

	cart, err := c.api.GetCart(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen > c.applied {
		c.cart = *cart
		c.applied = gen
		c.log.Debug("cart mirror refreshed",
			zap.Int("rows", len(cart.Carts)),
			zap.String("final_total", cart.FinalTotal.String()))
	}
	return nil
}

// AddItem adds qty units of a product. A qty below 1 means "not chosen" and
// defaults to 1, matching the add-from-catalog flow which has no qty field.
// On success the open detail view, if any, is closed.
func (c *CartController) AddItem(ctx context.Context, productID string, qty int) error {
	if productID == "" {
		return ErrInvalidInput
	}
	if qty < 1 {
		qty = 1
	}
	if err := c.begin(productID); err != nil {
		return err
	}
	defer c.end()

	if err := c.api.AddCartItem(ctx, productID, qty); err != nil {
		return err
	}
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	detail := c.detail
	c.mu.Unlock()
	if detail != nil {
		detail.Close()
	}
	return nil
}

// UpdateItem sets the quantity of an existing row. The payload carries the
// row's product id, not the row id, which only appears in the path.
func (c *CartController) UpdateItem(ctx context.Context, item domain.CartItem) error {
	if item.ID == "" || item.Product.ID == "" || item.Qty < 1 {
		return ErrInvalidInput
	}
	if err := c.begin(item.ID); err != nil {
		return err
	}
	defer c.end()

	if err := c.api.UpdateCartItem(ctx, item.ID, item.Product.ID, item.Qty); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// RemoveItem deletes one row.
func (c *CartController) RemoveItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		return ErrInvalidInput
	}
	if err := c.begin(itemID); err != nil {
		return err
	}
	defer c.end()

	if err := c.api.RemoveCartItem(ctx, itemID); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// RemoveAll empties the cart. Safe to call on an already empty cart.
func (c *CartController) RemoveAll(ctx context.Context) error {
	if err := c.begin(BusyClearAll); err != nil {
		return err
	}
	defer c.end()

	if err := c.api.ClearCart(ctx); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *CartController) begin(marker string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy != "" {
		return ErrBusy
	}
	c.busy = marker
	return nil
}

func (c *CartController) end() {
	c.mu.Lock()
	c.busy = ""
	c.mu.Unlock()
}
