package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront/internal/models"
	"storefront/pkg/mailer"
	"storefront/pkg/whatsapp"

	"github.com/sirupsen/logrus"
)

// Notifier receives order lifecycle events. Implementations talk to the
// outside world and may fail; callers treat failures as non-fatal.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

type NotificationService interface {
	Notifier
	Register(name string, n Notifier)
	Channels() []string
}

type channel struct {
	name     string
	notifier Notifier
}

type notificationService struct {
	logger   *logrus.Logger
	channels []channel
}

// NewNotificationService fans every event out to all registered channels.
// One failing channel does not stop the others.
func NewNotificationService(logger *logrus.Logger) NotificationService {
	return &notificationService{logger: logger}
}

func (s *notificationService) Register(name string, n Notifier) {
	s.channels = append(s.channels, channel{name: name, notifier: n})
}

func (s *notificationService) Channels() []string {
	names := make([]string, 0, len(s.channels))
	for _, c := range s.channels {
		names = append(names, c.name)
	}
	return names
}

func (s *notificationService) OrderPlaced(ctx context.Context, order *models.Order) error {
	return s.fanOut("order_placed", order, func(n Notifier) error {
		return n.OrderPlaced(ctx, order)
	})
}

func (s *notificationService) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	return s.fanOut("order_status_changed", order, func(n Notifier) error {
		return n.OrderStatusChanged(ctx, order, from)
	})
}

func (s *notificationService) fanOut(event string, order *models.Order, send func(Notifier) error) error {
	var errs []error
	for _, c := range s.channels {
		if err := send(c.notifier); err != nil {
			s.logger.WithFields(logrus.Fields{
				"channel":      c.name,
				"event":        event,
				"order_number": order.OrderNumber,
				"error":        err.Error(),
			}).Warn("Notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// E-mail

type emailNotifier struct {
	client *mailer.Client
}

func NewEmailNotifier(client *mailer.Client) Notifier {
	return &emailNotifier{client: client}
}

func (n *emailNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	if order.CustomerEmail == "" {
		return nil
	}
	return n.client.Send(ctx, mailer.Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Order Confirmation - %s", order.OrderNumber),
		Body:    ConfirmationMessage(order),
	})
}

func (n *emailNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	if order.CustomerEmail == "" {
		return nil
	}
	return n.client.Send(ctx, mailer.Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Order %s: %s", order.OrderNumber, order.StatusLabel()),
		Body:    StatusMessage(order),
	})
}

// WhatsApp

type whatsappNotifier struct {
	client *whatsapp.Client
}

func NewWhatsAppNotifier(client *whatsapp.Client) Notifier {
	return &whatsappNotifier{client: client}
}

func (n *whatsappNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	_, err := n.client.SendTextMessage(ctx, order.CustomerPhone, ConfirmationMessage(order))
	return err
}

func (n *whatsappNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	_, err := n.client.SendTextMessage(ctx, order.CustomerPhone, StatusMessage(order))
	return err
}

// Message bodies

const pickupLocation = "our restaurant counter"

// ConfirmationMessage renders the order summary sent to the customer.
func ConfirmationMessage(order *models.Order) string {
	var b strings.Builder

	name := order.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s, thank you for your order!\n\n", name)
	fmt.Fprintf(&b, "Order number: %s\n\n", order.OrderNumber)

	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s  %s\n", item.Quantity, item.Name, item.LineTotal.StringFixed(2))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Delivery: %s\n", order.DeliveryFee.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\n", order.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s %s\n\n", order.TotalAmount.StringFixed(2), strings.ToUpper(order.Currency))

	if order.DeliveryMethod == models.DeliveryMethodDelivery {
		addr := order.DeliveryAddress
		parts := []string{addr.Street, addr.City}
		if addr.ZipCode != "" {
			parts = append(parts, addr.ZipCode)
		}
		if addr.Country != "" {
			parts = append(parts, addr.Country)
		}
		fmt.Fprintf(&b, "Delivering to: %s\n", strings.Join(parts, ", "))
	} else {
		fmt.Fprintf(&b, "Pickup at %s\n", pickupLocation)
	}

	if order.EstimatedReadyAt != nil {
		fmt.Fprintf(&b, "Estimated time: %s\n", order.EstimatedReadyAt.Format("15:04"))
	}
	if order.SpecialInstructions != "" {
		fmt.Fprintf(&b, "Notes: %s\n", order.SpecialInstructions)
	}
	return b.String()
}

func StatusMessage(order *models.Order) string {
	return fmt.Sprintf("Your order %s is now: %s", order.OrderNumber, order.StatusLabel())
}

// Dispatcher runs notification work in the background and lets shutdown wait
// for it. Work handed over after Wait has started runs on the caller.
type Dispatcher struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (d *Dispatcher) Go(f func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		f()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		f()
	}()
}

// Wait blocks until dispatched work finishes or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
