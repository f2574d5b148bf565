package service

import (
	"context"

	"storefront/internal/domain"
)

// Catalog is the read-only product accessor.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// CartAPI is the server-held cart. Mutations return no cart state; callers
// re-fetch with GetCart to pick up authoritative totals.
type CartAPI interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddCartItem(ctx context.Context, productID string, qty int) error
	UpdateCartItem(ctx context.Context, itemID, productID string, qty int) error
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// OrderAPI submits a checkout form and returns the server confirmation message.
type OrderAPI interface {
	SubmitOrder(ctx context.Context, form domain.OrderForm) (string, error)
}

// Modal is the dialog capability owned by the presentation layer. The detail
// session only ever shows or hides it.
type Modal interface {
	Open()
	Close()
}

// Refresher re-reads the cart mirror. Satisfied by CartController.
type Refresher interface {
	Refresh(ctx context.Context) error
}
