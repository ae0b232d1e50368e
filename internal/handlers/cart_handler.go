package handlers

import (
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Cart endpoints
func (h *APIHandler) GetCart(c *gin.Context) {
	method := models.DeliveryMethod(c.Query("delivery_method"))

	view, err := h.cartService.Get(c.Request.Context(), identity(c), method)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) AddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ItemID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}

	updated, err := h.cartService.AddItem(c.Request.Context(), identity(c), req.ItemID, req.Quantity)
	h.respondCart(c, updated, err)
}

func (h *APIHandler) UpdateCartItem(c *gin.Context) {
	itemID, ok := uintParam(c, "item_id")
	if !ok {
		return
	}
	var req updateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.cartService.SetQuantity(c.Request.Context(), identity(c), itemID, req.Quantity)
	h.respondCart(c, updated, err)
}

func (h *APIHandler) RemoveCartItem(c *gin.Context) {
	itemID, ok := uintParam(c, "item_id")
	if !ok {
		return
	}

	updated, err := h.cartService.RemoveItem(c.Request.Context(), identity(c), itemID)
	h.respondCart(c, updated, err)
}

func (h *APIHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), identity(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) respondCart(c *gin.Context, updated cart.Cart, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	if updated.Lines == nil {
		updated.Lines = []cart.Line{}
	}
	c.JSON(http.StatusOK, gin.H{"cart": updated, "item_count": updated.ItemCount()})
}
