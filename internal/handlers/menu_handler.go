package handlers

import (
	"net/http"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// menuItemRequest defaults is_available to true when omitted.
type menuItemRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     models.Category `json:"category"`
	Image        string          `json:"image"`
	Ingredients  []string        `json:"ingredients"`
	IsSpecial    bool            `json:"is_special"`
	IsAvailable  *bool           `json:"is_available"`
	SpicyLevel   int             `json:"spicy_level"`
	IsVegetarian bool            `json:"is_vegetarian"`
}

func (r menuItemRequest) toModel() *models.CatalogItem {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return &models.CatalogItem{
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		Category:     r.Category,
		Image:        r.Image,
		Ingredients:  r.Ingredients,
		IsSpecial:    r.IsSpecial,
		IsAvailable:  available,
		SpicyLevel:   r.SpicyLevel,
		IsVegetarian: r.IsVegetarian,
	}
}

// Menu endpoints
func (h *APIHandler) ListMenu(c *gin.Context) {
	filter := repository.CatalogFilter{
		Category: models.Category(c.Query("category")),
	}
	if special := c.Query("special"); special != "" {
		v, err := strconv.ParseBool(special)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "special must be true or false"})
			return
		}
		filter.SpecialOnly = v
	}

	items, err := h.catalogService.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *APIHandler) GetMenuItem(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	item, err := h.catalogService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *APIHandler) CreateMenuItem(c *gin.Context) {
	var req menuItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item := req.toModel()
	if err := h.catalogService.Create(c.Request.Context(), identity(c), item); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *APIHandler) UpdateMenuItem(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req menuItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.catalogService.Update(c.Request.Context(), identity(c), id, req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *APIHandler) DeleteMenuItem(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), identity(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
