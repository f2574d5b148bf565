// Package apitest runs an in-memory stand-in for the remote commerce API so
// tests can exercise real HTTP round-trips without the hosted service.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Server holds the fake catalog and the server-side cart. The cart is the
// source of truth, mirroring how the hosted API behaves: every mutation is
// answered with a bare ack and the client is expected to re-fetch.
type Server struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	rows      []domain.CartItem
	nextRowID int
	orderMsg  string
	orderErr  string

	HTTP *httptest.Server
}

func New(storePath string, products ...domain.Product) *Server {
	s := &Server{
		products:  make(map[string]domain.Product),
		nextRowID: 1,
		orderMsg:  "order created",
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	prefix := "/api/" + storePath
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/products/all", s.listProducts)
	mux.HandleFunc("GET "+prefix+"/product/{id}", s.getProduct)
	mux.HandleFunc("GET "+prefix+"/cart", s.getCart)
	mux.HandleFunc("POST "+prefix+"/cart", s.addCartItem)
	mux.HandleFunc("PUT "+prefix+"/cart/{id}", s.updateCartItem)
	mux.HandleFunc("DELETE "+prefix+"/cart/{id}", s.removeCartItem)
	mux.HandleFunc("DELETE "+prefix+"/carts", s.clearCart)
	mux.HandleFunc("POST "+prefix+"/order", s.submitOrder)
	s.HTTP = httptest.NewServer(mux)
	return s
}

func (s *Server) Close() { s.HTTP.Close() }

// URL is the base URL to hand to the real client.
func (s *Server) URL() string { return s.HTTP.URL }

// FailOrders makes the order endpoint reject with the given body message.
func (s *Server) FailOrders(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderErr = message
}

// Rows returns a snapshot of the server-side cart.
func (s *Server) Rows() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.rows...)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"success": false, "message": message})
}

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": out})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[r.PathValue("id")]
	if !ok {
		fail(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": s.cartLocked()})
}

// cartLocked recomputes row and cart totals; callers hold s.mu.
func (s *Server) cartLocked() domain.Cart {
	cart := domain.Cart{Carts: append([]domain.CartItem(nil), s.rows...)}
	for i, row := range cart.Carts {
		total := row.Product.Price.Mul(decimal.NewFromInt(int64(row.Qty)))
		cart.Carts[i].Total = total
		cart.Carts[i].FinalTotal = total
		cart.Total = cart.Total.Add(total)
	}
	cart.FinalTotal = cart.Total
	return cart
}

type mutation struct {
	Data struct {
		ProductID string `json:"product_id"`
		Qty       int    `json:"qty"`
	} `json:"data"`
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req mutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[req.Data.ProductID]
	if !ok {
		fail(w, http.StatusBadRequest, "product not found")
		return
	}
	if req.Data.Qty < 1 {
		fail(w, http.StatusBadRequest, "invalid qty")
		return
	}
	// same product accumulates onto the existing row, like the hosted API
	for i, row := range s.rows {
		if row.ProductID == p.ID {
			s.rows[i].Qty += req.Data.Qty
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "added to cart"})
			return
		}
	}
	s.rows = append(s.rows, domain.CartItem{
		ID:        fmt.Sprintf("row-%d", s.nextRowID),
		ProductID: p.ID,
		Qty:       req.Data.Qty,
		Product:   p,
	})
	s.nextRowID++
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "added to cart"})
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req mutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Data.Qty < 1 {
		fail(w, http.StatusBadRequest, "invalid qty")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == r.PathValue("id") {
			s.rows[i].Qty = req.Data.Qty
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "cart updated"})
			return
		}
	}
	fail(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == r.PathValue("id") {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "cart item removed"})
			return
		}
	}
	fail(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// clearing an already empty cart is fine, matching the hosted API
	s.rows = nil
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "cart cleared"})
}

func (s *Server) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data domain.OrderForm `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orderErr != "" {
		fail(w, http.StatusBadRequest, s.orderErr)
		return
	}
	if req.Data.User.Name == "" || req.Data.User.Email == "" {
		fail(w, http.StatusBadRequest, "incomplete order form")
		return
	}
	// the server empties the cart when the order is created
	s.rows = nil
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": s.orderMsg})
}
