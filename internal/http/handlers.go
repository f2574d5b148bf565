package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"storefront/internal/api"
	"storefront/internal/domain"
	"storefront/internal/service"
)

// Server is the UI-facing surface: product grid, detail session, cart table
// and order form, all backed by the core controllers.
type Server struct {
	engine   *gin.Engine
	catalog  service.Catalog
	cart     *service.CartController
	session  *service.DetailSession
	checkout *service.CheckoutFlow
	modal    *ModalState
	log      *zap.Logger
}

func NewServer(catalog service.Catalog, cart *service.CartController, session *service.DetailSession,
	checkout *service.CheckoutFlow, modal *ModalState, log *zap.Logger) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID())
	s := &Server{
		engine:   r,
		catalog:  catalog,
		cart:     cart,
		session:  session,
		checkout: checkout,
		modal:    modal,
		log:      log,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	ui := s.engine.Group("/api")
	{
		ui.GET("/products", s.listProducts)
		ui.POST("/products/:id/view", s.viewProduct)

		ui.GET("/session", s.getSession)
		ui.POST("/session/quantity", s.setQuantity)
		ui.POST("/session/confirm", s.confirmAdd)
		ui.POST("/session/close", s.closeSession)

		ui.GET("/cart", s.getCart)
		ui.POST("/cart", s.addCartItem)
		ui.PUT("/cart/:id", s.updateCartItem)
		ui.DELETE("/cart/:id", s.removeCartItem)
		ui.DELETE("/cart", s.clearCart)

		ui.POST("/order", s.submitOrder)
	}
}

// sessionView is what the page needs to render the detail dialog.
type sessionView struct {
	State     string          `json:"state"`
	Product   *domain.Product `json:"product,omitempty"`
	Qty       int             `json:"qty"`
	ModalOpen bool            `json:"modal_open"`
}

func (s *Server) sessionView() sessionView {
	return sessionView{
		State:     s.session.State().String(),
		Product:   s.session.Product(),
		Qty:       s.session.Quantity(),
		ModalOpen: s.modal.IsOpen(),
	}
}

// cartView is the mirror plus the busy marker driving per-row spinners.
type cartView struct {
	Cart    domain.Cart `json:"cart"`
	Loading string      `json:"loading"`
}

func (s *Server) cartView() cartView {
	return cartView{Cart: s.cart.Cart(), Loading: s.cart.Busy()}
}

// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 502 {object} map[string]string
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	products, err := s.catalog.ListProducts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// @Summary Open the detail view for a product
// @Tags session
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} sessionView
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /products/{id}/view [post]
func (s *Server) viewProduct(c *gin.Context) {
	if err := s.session.Select(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.sessionView())
}

// @Summary Detail session state
// @Tags session
// @Produce json
// @Success 200 {object} sessionView
// @Router /session [get]
func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessionView())
}

type quantityReq struct {
	Qty int `json:"qty"`
}

// @Summary Choose the quantity for the open product
// @Tags session
// @Accept json
// @Produce json
// @Param input body quantityReq true "Quantity"
// @Success 200 {object} sessionView
// @Failure 400 {object} map[string]string
// @Router /session/quantity [post]
func (s *Server) setQuantity(c *gin.Context) {
	var req quantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.session.SetQuantity(req.Qty)
	c.JSON(http.StatusOK, s.sessionView())
}

// @Summary Add the open product to the cart
// @Tags session
// @Produce json
// @Success 200 {object} cartView
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /session/confirm [post]
func (s *Server) confirmAdd(c *gin.Context) {
	if err := s.session.ConfirmAdd(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

// @Summary Close the detail view
// @Tags session
// @Success 204
// @Router /session/close [post]
func (s *Server) closeSession(c *gin.Context) {
	s.session.Close()
	c.Status(http.StatusNoContent)
}

// @Summary Cart mirror and busy marker
// @Tags cart
// @Produce json
// @Success 200 {object} cartView
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.cartView())
}

type addCartReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addCartReq true "Product and quantity; qty omitted means 1"
// @Success 200 {object} cartView
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /cart [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.cart.AddItem(c.Request.Context(), req.ProductID, req.Qty); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

type updateCartReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// @Summary Change the quantity of a cart row
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Cart item ID"
// @Param input body updateCartReq true "Product and new quantity"
// @Success 200 {object} cartView
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /cart/{id} [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	item := domain.CartItem{
		ID:      c.Param("id"),
		Qty:     req.Qty,
		Product: domain.Product{ID: req.ProductID},
	}
	if err := s.cart.UpdateItem(c.Request.Context(), item); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

// @Summary Remove a cart row
// @Tags cart
// @Produce json
// @Param id path string true "Cart item ID"
// @Success 200 {object} cartView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	if err := s.cart.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

// @Summary Clear the cart
// @Tags cart
// @Produce json
// @Success 200 {object} cartView
// @Failure 409 {object} map[string]string
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.cart.RemoveAll(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

// @Summary Submit the order form
// @Tags order
// @Accept json
// @Produce json
// @Param input body domain.OrderForm true "Order form"
// @Success 200 {object} map[string]string
// @Failure 422 {object} map[string]any
// @Failure 502 {object} map[string]string
// @Router /order [post]
func (s *Server) submitOrder(c *gin.Context) {
	var form domain.OrderForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	message, err := s.checkout.Submit(c.Request.Context(), form)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// fail translates core errors into status codes. Upstream failures surface the
// message taken from the API response body.
func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	var apiErr *api.Error
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrNoOpenProduct):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
