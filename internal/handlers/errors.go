package handlers

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto status codes. Internal failures are
// logged and never echoed to the client.
func (h *APIHandler) respondError(c *gin.Context, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

func classify(err error) (int, string) {
	var validation *services.ValidationError
	var declined *payment.DeclinedError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.As(err, &declined):
		return http.StatusPaymentRequired, declined.Error()
	case errors.Is(err, payment.ErrDeclined),
		errors.Is(err, payment.ErrUnexpectedState),
		errors.Is(err, payment.ErrIntentNotFound),
		errors.Is(err, payment.ErrProvider):
		return http.StatusPaymentRequired, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}
