package handlers

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

type quoteRequest struct {
	Items          []services.LineRequest `json:"items"`
	DeliveryMethod models.DeliveryMethod  `json:"delivery_method"`
}

type createIntentRequest struct {
	Amount int64 `json:"amount"`
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// Pricing and payment endpoints
func (h *APIHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DeliveryMethod == "" {
		req.DeliveryMethod = models.DeliveryMethodPickup
	}

	lines, quote, err := h.checkoutService.Quote(c.Request.Context(), req.Items, req.DeliveryMethod)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":           lines,
		"delivery_method": req.DeliveryMethod,
		"quote":           quote.Rounded(),
		"amount":          quote.AmountMinor(),
	})
}

func (h *APIHandler) CreatePaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.checkoutService.CreatePaymentIntent(c.Request.Context(), identity(c), req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
	})
}

func (h *APIHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), identity(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Order endpoints
func (h *APIHandler) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.checkoutService.PlaceOrder(c.Request.Context(), identity(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *APIHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), identity(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *APIHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), identity(c), c.Param("order_number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *APIHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), identity(c), c.Param("order_number"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
