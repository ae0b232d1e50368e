package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/pkg/whatsapp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	deliveryLeadTime = 45 * time.Minute
	pickupLeadTime   = 30 * time.Minute
)

var ErrOrderNumberExhausted = errors.New("could not assign a unique order number")

type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateOrderInput describes a purchase whose payment has already succeeded.
type CreateOrderInput struct {
	UserID              uint
	Lines               []cart.Line
	Quote               pricing.Quote
	DeliveryMethod      models.DeliveryMethod
	DeliveryAddress     *models.DeliveryAddress
	Contact             ContactInfo
	PaymentReference    string
	PaymentMethod       models.PaymentMethod
	Currency            string
	SpecialInstructions string
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, identity Identity, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, identity Identity) ([]models.Order, error)
	FindByPaymentReference(ctx context.Context, identity Identity, paymentReference string) (*models.Order, error)
	UpdateStatus(ctx context.Context, identity Identity, orderNumber string, to models.OrderStatus) (*models.Order, error)
	TrackOrder(ctx context.Context, orderNumber, phone string) (*models.Order, error)
}

type OrderServiceConfig struct {
	Rules          pricing.Rules
	PersistTimeout time.Duration
	NotifyTimeout  time.Duration
	NextNumber     OrderNumberGenerator
	// Dispatch runs notification work after the response path is done.
	// Defaults to a new goroutine.
	Dispatch func(func())
	Now      func() time.Time
}

type orderService struct {
	orderRepo repository.OrderRepository
	notifier  Notifier
	logger    *logrus.Logger
	cfg       OrderServiceConfig
}

func NewOrderService(orderRepo repository.OrderRepository, notifier Notifier, logger *logrus.Logger, cfg OrderServiceConfig) OrderService {
	if cfg.NextNumber == nil {
		cfg.NextNumber = NewOrderNumberGenerator("")
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(f func()) { go f() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Rules.TaxRate.IsZero() && cfg.Rules.DeliveryFee.IsZero() {
		cfg.Rules = pricing.DefaultRules
	}
	return &orderService{orderRepo: orderRepo, notifier: notifier, logger: logger, cfg: cfg}
}

// CreateOrder persists a paid order and only then notifies the customer.
// A replayed payment reference returns the order already created for it.
func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	order := s.buildOrder(in)

	if err := s.persist(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicatePaymentReference) {
			return s.replay(ctx, in.UserID, in.PaymentReference)
		}
		s.logReconciliation(order, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_number":      order.OrderNumber,
		"user_id":           order.UserID,
		"payment_reference": order.PaymentReference,
		"amount_charged":    order.AmountCharged,
	}).Info("Order created")

	s.notify(order, func(ctx context.Context, n Notifier, o *models.Order) error {
		return n.OrderPlaced(ctx, o)
	})
	return order, nil
}

func (s *orderService) validate(in CreateOrderInput) error {
	if in.UserID == 0 {
		return ErrUnauthenticated
	}
	if len(in.Lines) == 0 {
		return invalid("items", "cart is empty")
	}
	if err := (cart.Cart{Lines: in.Lines}).Validate(); err != nil {
		return invalid("items", "%s", err.Error())
	}
	if err := validateFulfilment(in.DeliveryMethod, in.DeliveryAddress, in.Contact); err != nil {
		return err
	}
	if strings.TrimSpace(in.PaymentReference) == "" {
		return invalid("payment_reference", "is required")
	}

	expected := s.cfg.Rules.Quote(in.Lines, in.DeliveryMethod)
	if !expected.ChargeTotal().Equal(in.Quote.ChargeTotal()) {
		return invalid("total", "quoted total %s does not match items (%s)",
			in.Quote.ChargeTotal().StringFixed(2), expected.ChargeTotal().StringFixed(2))
	}
	return nil
}

// validateFulfilment checks what every order needs regardless of payment.
func validateFulfilment(method models.DeliveryMethod, addr *models.DeliveryAddress, contact ContactInfo) error {
	if !method.IsValid() {
		return invalid("delivery_method", "must be delivery or pickup")
	}
	if method == models.DeliveryMethodDelivery {
		if addr == nil {
			return invalid("delivery_address", "is required for delivery")
		}
		if strings.TrimSpace(addr.Street) == "" {
			return invalid("delivery_address.street", "is required for delivery")
		}
		if strings.TrimSpace(addr.City) == "" {
			return invalid("delivery_address.city", "is required for delivery")
		}
	}
	if strings.TrimSpace(contact.Phone) == "" {
		return invalid("phone", "is required")
	}
	return nil
}

func (s *orderService) buildOrder(in CreateOrderInput) *models.Order {
	now := s.cfg.Now()
	quote := in.Quote

	items := make([]models.OrderItem, 0, len(in.Lines))
	for _, l := range in.Lines {
		items = append(items, models.OrderItem{
			CatalogItemID: l.ItemID,
			Name:          l.Name,
			Image:         l.Image,
			Category:      l.Category,
			UnitPrice:     l.UnitPrice,
			Quantity:      l.Quantity,
			LineTotal:     l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}

	lead := deliveryLeadTime
	var address models.DeliveryAddress
	if in.DeliveryMethod == models.DeliveryMethodPickup {
		lead = pickupLeadTime
	} else if in.DeliveryAddress != nil {
		address = *in.DeliveryAddress
	}
	ready := now.Add(lead)

	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentMethodStripe
	}

	return &models.Order{
		ID:                  uuid.NewString(),
		UserID:              in.UserID,
		Items:               items,
		Subtotal:            quote.Subtotal,
		DeliveryFee:         quote.DeliveryFee,
		Tax:                 quote.Tax,
		TotalAmount:         quote.ChargeTotal(),
		AmountCharged:       quote.AmountMinor(),
		Currency:            strings.ToLower(in.Currency),
		Status:              models.OrderPending,
		PaymentStatus:       models.PaymentPaid,
		PaymentMethod:       method,
		PaymentReference:    in.PaymentReference,
		DeliveryMethod:      in.DeliveryMethod,
		DeliveryAddress:     address,
		CustomerName:        strings.TrimSpace(in.Contact.Name),
		CustomerEmail:       strings.TrimSpace(in.Contact.Email),
		CustomerPhone:       strings.TrimSpace(in.Contact.Phone),
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		EstimatedReadyAt:    &ready,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// persist retries with a fresh number when the unique index reports a
// collision. Any other failure is returned as is.
func (s *orderService) persist(ctx context.Context, order *models.Order) error {
	if s.cfg.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PersistTimeout)
		defer cancel()
	}

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.cfg.NextNumber()
		err := s.orderRepo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return fmt.Errorf("failed to save order: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"attempt":      attempt,
		}).Warn("Order number collision, regenerating")
	}
	return ErrOrderNumberExhausted
}

func (s *orderService) replay(ctx context.Context, userID uint, paymentReference string) (*models.Order, error) {
	existing, err := s.orderRepo.GetByPaymentReference(ctx, paymentReference)
	if err != nil {
		return nil, fmt.Errorf("failed to load order for payment %s: %w", paymentReference, err)
	}
	if existing.UserID != userID {
		return nil, fmt.Errorf("%w: payment already used for another order", ErrConflict)
	}
	return existing, nil
}

// logReconciliation records everything needed to match a captured payment
// to the order that failed to save.
func (s *orderService) logReconciliation(order *models.Order, err error) {
	items := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, fmt.Sprintf("%d x %s (#%d) @ %s", it.Quantity, it.Name, it.CatalogItemID, it.UnitPrice.StringFixed(2)))
	}
	s.logger.WithFields(logrus.Fields{
		"payment_reference": order.PaymentReference,
		"amount_charged":    order.AmountCharged,
		"currency":          order.Currency,
		"user_id":           order.UserID,
		"customer_name":     order.CustomerName,
		"customer_email":    order.CustomerEmail,
		"customer_phone":    order.CustomerPhone,
		"delivery_method":   order.DeliveryMethod,
		"items":             items,
		"error":             err.Error(),
	}).Error("Payment captured but order could not be saved; manual reconciliation required")
}

// notify hands a copy of the order to the notifier so the caller may keep
// using its own.
func (s *orderService) notify(order *models.Order, send func(context.Context, Notifier, *models.Order) error) {
	if s.notifier == nil {
		return
	}
	snapshot := *order
	s.cfg.Dispatch(func() {
		ctx := context.Background()
		if s.cfg.NotifyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.NotifyTimeout)
			defer cancel()
		}
		if err := send(ctx, s.notifier, &snapshot); err != nil {
			s.logger.WithFields(logrus.Fields{
				"order_number": snapshot.OrderNumber,
				"error":        err.Error(),
			}).Warn("Order notification incomplete")
		}
	})
}

func (s *orderService) GetOrder(ctx context.Context, identity Identity, orderNumber string) (*models.Order, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
		}
		return nil, err
	}
	// Other customers' orders look missing rather than forbidden.
	if !identity.IsStaff() && order.UserID != identity.UserID {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, identity Identity) ([]models.Order, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}
	if identity.IsStaff() {
		return s.orderRepo.ListAll(ctx)
	}
	return s.orderRepo.ListByUser(ctx, identity.UserID)
}

// TrackOrder serves callers without a session, such as the WhatsApp bot. The
// phone must match the order's contact number.
func (s *orderService) TrackOrder(ctx context.Context, orderNumber, phone string) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	sender := whatsapp.NormalizePhone(phone)
	if orderNumber == "" || sender == "" {
		return nil, invalid("order_number", "order number and phone are required")
	}
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
		}
		return nil, err
	}
	if whatsapp.NormalizePhone(order.CustomerPhone) != sender {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
	}
	return order, nil
}

// FindByPaymentReference returns (nil, nil) when no order uses the reference.
func (s *orderService) FindByPaymentReference(ctx context.Context, identity Identity, paymentReference string) (*models.Order, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByPaymentReference(ctx, paymentReference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if order.UserID != identity.UserID {
		return nil, fmt.Errorf("%w: payment already used for another order", ErrConflict)
	}
	return order, nil
}

// UpdateStatus moves a paid order one step along its fulfilment path, or
// cancels it. The write only lands if nobody changed the status meanwhile.
func (s *orderService) UpdateStatus(ctx context.Context, identity Identity, orderNumber string, to models.OrderStatus) (*models.Order, error) {
	if err := identity.requireStaff(); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderNumber)
		}
		return nil, err
	}

	if order.PaymentStatus != models.PaymentPaid {
		return nil, fmt.Errorf("%w: payment status is %s", models.ErrInvalidTransition, order.PaymentStatus)
	}
	if err := models.ValidateTransition(order.Status, to); err != nil {
		return nil, err
	}

	from := order.Status
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, from, to); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: order %s was updated by someone else", ErrConflict, orderNumber)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = to
	order.UpdatedAt = s.cfg.Now()

	s.logger.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"from":         from,
		"to":           to,
		"staff_id":     identity.UserID,
	}).Info("Order status updated")

	s.notify(order, func(ctx context.Context, n Notifier, o *models.Order) error {
		return n.OrderStatusChanged(ctx, o, from)
	})
	return order, nil
}
