package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account endpoints
func (h *APIHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *APIHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expires,
	})
}
