package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Error is a non-2xx reply from the commerce API. Message is taken from the
// response body, which is where the API puts the human-readable reason.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("commerce api: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to the remote commerce API. All cart state is owned by the
// server; the client only reads and mutates it.
type Client struct {
	baseURL   string
	storePath string
	hc        *http.Client
	log       *zap.Logger
}

func New(baseURL, storePath string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		storePath: storePath,
		hc:        &http.Client{Timeout: timeout},
		log:       log,
	}
}

// cartPayload is the mutation body for add and update calls.
type cartPayload struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// envelope wraps request bodies the way the API expects: {"data": ...}
type envelope struct {
	Data any `json:"data"`
}

func (c *Client) url(p string) string {
	return fmt.Sprintf("%s/api/%s%s", c.baseURL, c.storePath, p)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// the API reports the reason in the body, not the status line
		var reply struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&reply)
		if reply.Message == "" {
			reply.Message = http.StatusText(resp.StatusCode)
		}
		c.log.Warn("commerce api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", reply.Message))
		return &Error{StatusCode: resp.StatusCode, Message: reply.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var reply struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/all", nil, &reply); err != nil {
		return nil, err
	}
	return reply.Products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var reply struct {
		Product domain.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/product/"+id, nil, &reply); err != nil {
		return nil, err
	}
	return &reply.Product, nil
}

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var reply struct {
		Data domain.Cart `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &reply); err != nil {
		return nil, err
	}
	return &reply.Data, nil
}

func (c *Client) AddCartItem(ctx context.Context, productID string, qty int) error {
	body := envelope{Data: cartPayload{ProductID: productID, Qty: qty}}
	return c.do(ctx, http.MethodPost, "/cart", body, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID, productID string, qty int) error {
	body := envelope{Data: cartPayload{ProductID: productID, Qty: qty}}
	return c.do(ctx, http.MethodPut, "/cart/"+itemID, body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+itemID, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/carts", nil, nil)
}

func (c *Client) SubmitOrder(ctx context.Context, form domain.OrderForm) (string, error) {
	var reply struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/order", envelope{Data: form}, &reply); err != nil {
		return "", err
	}
	return reply.Message, nil
}
