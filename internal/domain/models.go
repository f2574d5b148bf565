package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry as the commerce API returns it. Products are
// read-only on this side; each detail view fetches a fresh copy.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	ImageURL    string          `json:"imageUrl"`
	OriginPrice decimal.Decimal `json:"origin_price"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
}

// CartItem is one cart row. Total and FinalTotal are server-computed;
// FinalTotal reflects any coupon applied upstream.
type CartItem struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Qty        int             `json:"qty"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
	Product    Product         `json:"product"`
}

// Cart is the server-authoritative cart state. Totals are never computed
// locally; the mirror is replaced wholesale after every mutation.
type Cart struct {
	Carts      []CartItem      `json:"carts"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// OrderUser holds the buyer fields of the order form.
type OrderUser struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Tel     string `json:"tel" validate:"required,twphone"`
	Address string `json:"address" validate:"required"`
}

// OrderForm is the checkout payload posted to the order endpoint.
type OrderForm struct {
	User    OrderUser `json:"user"`
	Message string    `json:"message"`
}
