package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/auth"
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type APIHandler struct {
	userService     services.UserService
	catalogService  services.CatalogService
	cartService     services.CartService
	checkoutService services.CheckoutService
	orderService    services.OrderService
	tokens          *auth.TokenManager
	hub             *websocket.Hub
	logger          *logrus.Logger

	checkNames []string
	checks     map[string]HealthCheck
}

func NewAPIHandler(
	userService services.UserService,
	catalogService services.CatalogService,
	cartService services.CartService,
	checkoutService services.CheckoutService,
	orderService services.OrderService,
	tokens *auth.TokenManager,
	hub *websocket.Hub,
	logger *logrus.Logger,
) *APIHandler {
	return &APIHandler{
		userService:     userService,
		catalogService:  catalogService,
		cartService:     cartService,
		checkoutService: checkoutService,
		orderService:    orderService,
		tokens:          tokens,
		hub:             hub,
		logger:          logger,
		checks:          make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probe reported by /health.
func (h *APIHandler) AddHealthCheck(name string, check HealthCheck) {
	if _, ok := h.checks[name]; !ok {
		h.checkNames = append(h.checkNames, name)
	}
	h.checks[name] = check
}

func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		api.GET("/menu", h.ListMenu)
		api.GET("/menu/:id", h.GetMenuItem)
		api.POST("/quote", h.Quote)
	}

	user := api.Group("", middleware.AuthRequired(h.tokens))
	{
		user.GET("/cart", h.GetCart)
		user.POST("/cart/items", h.AddCartItem)
		user.PUT("/cart/items/:item_id", h.UpdateCartItem)
		user.DELETE("/cart/items/:item_id", h.RemoveCartItem)
		user.DELETE("/cart", h.ClearCart)

		user.POST("/payment/create-intent", h.CreatePaymentIntent)
		user.POST("/checkout", h.Checkout)

		user.POST("/orders", h.PlaceOrder)
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:order_number", h.GetOrder)
	}

	admin := api.Group("/admin", middleware.AuthRequired(h.tokens), middleware.StaffOnly())
	{
		admin.POST("/menu", h.CreateMenuItem)
		admin.PUT("/menu/:id", h.UpdateMenuItem)
		admin.DELETE("/menu/:id", h.DeleteMenuItem)

		admin.PATCH("/orders/:order_number/status", h.UpdateOrderStatus)
	}

	if h.hub != nil {
		router.GET("/ws/orders", middleware.AuthRequired(h.tokens), middleware.StaffOnly(), h.OrderFeed)
	}
}

// Health endpoint
func (h *APIHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(gin.H, len(h.checks))
	for _, name := range h.checkNames {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

// OrderFeed upgrades staff connections to the live order websocket.
func (h *APIHandler) OrderFeed(c *gin.Context) {
	h.hub.HandleWebSocket(c.Writer, c.Request)
}

func identity(c *gin.Context) services.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return false
	}
	return true
}
