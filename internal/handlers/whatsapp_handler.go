package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/services"
	"storefront/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MessageSender delivers a WhatsApp reply.
type MessageSender interface {
	SendTextMessage(ctx context.Context, phone, message string) (*whatsapp.SendMessageResponse, error)
}

// WhatsAppHandler answers customers who message the restaurant's number.
// It only ever reveals an order to the phone number the order was placed with.
type WhatsAppHandler struct {
	sender       MessageSender
	orderService services.OrderService
	logger       *logrus.Logger
}

func NewWhatsAppHandler(sender MessageSender, orderService services.OrderService, logger *logrus.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{sender: sender, orderService: orderService, logger: logger}
}

type WebhookRequest struct {
	SenderID  string `json:"sender_id"`
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Pushname  string `json:"pushname"`
	Message   struct {
		Text string `json:"text"`
		ID   string `json:"id"`
	} `json:"message"`
}

func (h *WhatsAppHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/whatsapp/webhook", h.HandleWebhook)
}

func (h *WhatsAppHandler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// Gateways send "628123456789@s.whatsapp.net"
	phone := req.From
	if phone == "" {
		phone = req.SenderID
	}
	phone, _, _ = strings.Cut(phone, "@")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender"})
		return
	}

	reply := h.processCommand(c.Request.Context(), phone, req.Message.Text)
	if _, err := h.sender.SendTextMessage(c.Request.Context(), phone, reply); err != nil {
		h.logger.WithError(err).WithField("phone", phone).Error("Failed to send WhatsApp reply")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *WhatsAppHandler) processCommand(ctx context.Context, phone, message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return helpMessage()
	}

	switch strings.ToLower(strings.TrimPrefix(fields[0], "/")) {
	case "status", "track":
		if len(fields) < 2 {
			return "Please send: /status <order number>"
		}
		return h.orderStatus(ctx, phone, fields[1])
	default:
		return helpMessage()
	}
}

func (h *WhatsAppHandler) orderStatus(ctx context.Context, phone, orderNumber string) string {
	order, err := h.orderService.TrackOrder(ctx, orderNumber, phone)
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrInvalidInput):
		return fmt.Sprintf("We couldn't find order %s for this number.", orderNumber)
	case err != nil:
		h.logger.WithError(err).WithField("order_number", orderNumber).Error("Order lookup failed")
		return "Sorry, we couldn't look up your order right now. Please try again shortly."
	}

	reply := services.StatusMessage(order)
	if order.EstimatedReadyAt != nil && !order.Status.IsTerminal() {
		reply += fmt.Sprintf("\nEstimated time: %s", order.EstimatedReadyAt.Format("15:04"))
	}
	return reply
}

func helpMessage() string {
	return `Available commands:
/status <order number> - Check your order status
/help - Show this help message`
}
