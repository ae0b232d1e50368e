package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/redis"
	"storefront/pkg/payment"

	"github.com/sirupsen/logrus"
)

// IntentStore remembers which account requested a payment intent.
type IntentStore interface {
	SaveIntent(ctx context.Context, rec *redis.IntentRecord, ttl time.Duration) error
	GetIntent(ctx context.Context, intentID string) (*redis.IntentRecord, error)
}

// CheckoutRequest is shared by both checkout flows. When Items is empty the
// caller's stored cart is used and cleared on success.
type CheckoutRequest struct {
	Items               []LineRequest           `json:"items"`
	DeliveryMethod      models.DeliveryMethod   `json:"delivery_method"`
	DeliveryAddress     *models.DeliveryAddress `json:"delivery_address"`
	Contact             ContactInfo             `json:"contact"`
	SpecialInstructions string                  `json:"special_instructions"`
	// PaymentMethod is the provider's opaque payment method token.
	PaymentMethod string `json:"payment_method"`
}

// PlaceOrderRequest finishes a checkout the client already confirmed with
// the payment provider.
type PlaceOrderRequest struct {
	CheckoutRequest
	PaymentReference string `json:"payment_reference"`
}

type CheckoutService interface {
	Quote(ctx context.Context, requests []LineRequest, method models.DeliveryMethod) ([]cart.Line, pricing.Quote, error)
	CreatePaymentIntent(ctx context.Context, identity Identity, amount int64) (*payment.Intent, error)
	Checkout(ctx context.Context, identity Identity, req CheckoutRequest) (*models.Order, error)
	PlaceOrder(ctx context.Context, identity Identity, req PlaceOrderRequest) (*models.Order, error)
}

type CheckoutConfig struct {
	Rules          pricing.Rules
	Currency       string
	PaymentTimeout time.Duration
	IntentTTL      time.Duration
}

type checkoutService struct {
	catalog CatalogService
	orders  OrderService
	carts   CartStore
	intents IntentStore
	gateway payment.Gateway
	logger  *logrus.Logger
	cfg     CheckoutConfig
}

func NewCheckoutService(
	catalog CatalogService,
	orders OrderService,
	carts CartStore,
	intents IntentStore,
	gateway payment.Gateway,
	logger *logrus.Logger,
	cfg CheckoutConfig,
) CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.Rules.TaxRate.IsZero() && cfg.Rules.DeliveryFee.IsZero() {
		cfg.Rules = pricing.DefaultRules
	}
	return &checkoutService{
		catalog: catalog,
		orders:  orders,
		carts:   carts,
		intents: intents,
		gateway: gateway,
		logger:  logger,
		cfg:     cfg,
	}
}

// Quote prices lines against the current catalog without touching the
// payment provider.
func (s *checkoutService) Quote(ctx context.Context, requests []LineRequest, method models.DeliveryMethod) ([]cart.Line, pricing.Quote, error) {
	if !method.IsValid() {
		return nil, pricing.Quote{}, invalid("delivery_method", "must be delivery or pickup")
	}
	lines, err := s.catalog.Resolve(ctx, requests)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	return lines, s.cfg.Rules.Quote(lines, method), nil
}

func (s *checkoutService) CreatePaymentIntent(ctx context.Context, identity Identity, amount int64) (*payment.Intent, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}
	if err := payment.ValidateAmount(amount); err != nil {
		return nil, invalid("amount", "must be at least %d minor units", payment.MinimumChargeMinor)
	}

	pctx, cancel := s.paymentContext(ctx)
	defer cancel()

	intent, err := s.gateway.CreateIntent(pctx, amount, s.cfg.Currency, s.metadata(identity))
	if err != nil {
		return nil, err
	}

	if err := s.intents.SaveIntent(ctx, s.intentRecord(identity, intent), s.cfg.IntentTTL); err != nil {
		return nil, fmt.Errorf("failed to record payment intent: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id": intent.ID,
		"user_id":   identity.UserID,
		"amount":    amount,
	}).Info("Payment intent created")
	return intent, nil
}

// Checkout charges the customer and creates the order. Each step runs only
// if the previous one succeeded; no order exists unless payment did.
func (s *checkoutService) Checkout(ctx context.Context, identity Identity, req CheckoutRequest) (*models.Order, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}

	if err := validateFulfilment(req.DeliveryMethod, req.DeliveryAddress, req.Contact); err != nil {
		return nil, err
	}
	lines, quote, fromCart, err := s.prepare(ctx, identity, req)
	if err != nil {
		return nil, err
	}

	amount := quote.AmountMinor()
	if err := payment.ValidateAmount(amount); err != nil {
		return nil, invalid("total", "order total must be at least %s", minimumChargeDisplay())
	}

	pctx, cancel := s.paymentContext(ctx)
	defer cancel()

	intent, err := s.gateway.CreateIntent(pctx, amount, s.cfg.Currency, s.metadata(identity))
	if err != nil {
		return nil, err
	}
	// Recorded before confirming so a charge whose outcome is lost can still
	// be turned into an order through PlaceOrder.
	if err := s.intents.SaveIntent(ctx, s.intentRecord(identity, intent), s.cfg.IntentTTL); err != nil {
		return nil, fmt.Errorf("failed to record payment intent: %w", err)
	}

	confirmed, err := s.gateway.Confirm(pctx, intent.ID, req.PaymentMethod)
	if err != nil {
		s.logPaymentFailure(identity, intent.ID, amount, err)
		return nil, err
	}
	if !confirmed.Succeeded() {
		err := declinedFromIntent(confirmed)
		s.logPaymentFailure(identity, intent.ID, amount, err)
		return nil, err
	}

	order, err := s.orders.CreateOrder(ctx, s.orderInput(identity, req, lines, quote, confirmed.ID))
	if err != nil {
		return nil, err
	}

	if fromCart {
		s.clearCart(ctx, identity.UserID)
	}
	return order, nil
}

// PlaceOrder creates the order for an intent the client confirmed itself.
// The provider is asked directly whether the intent succeeded and for how
// much; the client's word is never taken for either.
func (s *checkoutService) PlaceOrder(ctx context.Context, identity Identity, req PlaceOrderRequest) (*models.Order, error) {
	if err := identity.authenticated(); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(req.PaymentReference)
	if ref == "" {
		return nil, invalid("payment_reference", "is required")
	}
	if err := validateFulfilment(req.DeliveryMethod, req.DeliveryAddress, req.Contact); err != nil {
		return nil, err
	}

	if existing, err := s.orders.FindByPaymentReference(ctx, identity, ref); err != nil || existing != nil {
		return existing, err
	}

	rec, err := s.intents.GetIntent(ctx, ref)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, invalid("payment_reference", "unknown or expired payment")
		}
		return nil, err
	}
	if rec.UserID != identity.UserID {
		return nil, ErrForbidden
	}

	lines, quote, fromCart, err := s.prepare(ctx, identity, req.CheckoutRequest)
	if err != nil {
		return nil, err
	}

	pctx, cancel := s.paymentContext(ctx)
	defer cancel()

	intent, err := s.gateway.GetIntent(pctx, ref)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, declinedFromIntent(intent)
	}
	if intent.Amount != quote.AmountMinor() {
		s.logger.WithFields(logrus.Fields{
			"intent_id":   ref,
			"user_id":     identity.UserID,
			"paid":        intent.Amount,
			"order_total": quote.AmountMinor(),
		}).Error("Payment amount does not match order total")
		return nil, invalid("payment_reference", "payment amount does not match order total")
	}

	order, err := s.orders.CreateOrder(ctx, s.orderInput(identity, req.CheckoutRequest, lines, quote, intent.ID))
	if err != nil {
		return nil, err
	}

	if fromCart {
		s.clearCart(ctx, identity.UserID)
	}
	return order, nil
}

// prepare prices the request against the catalog. Callers validate
// fulfilment details first; nothing here touches the payment provider.
func (s *checkoutService) prepare(ctx context.Context, identity Identity, req CheckoutRequest) ([]cart.Line, pricing.Quote, bool, error) {
	requests := req.Items
	fromCart := false
	if len(requests) == 0 {
		stored, err := s.carts.GetCart(ctx, identity.UserID)
		if err != nil {
			return nil, pricing.Quote{}, false, fmt.Errorf("failed to load cart: %w", err)
		}
		for _, l := range stored.Lines {
			requests = append(requests, LineRequest{ItemID: l.ItemID, Quantity: l.Quantity})
		}
		fromCart = true
	}
	if len(requests) == 0 {
		return nil, pricing.Quote{}, false, invalid("items", "cart is empty")
	}

	lines, err := s.catalog.Resolve(ctx, requests)
	if err != nil {
		return nil, pricing.Quote{}, false, err
	}
	return lines, s.cfg.Rules.Quote(lines, req.DeliveryMethod), fromCart, nil
}

func (s *checkoutService) orderInput(identity Identity, req CheckoutRequest, lines []cart.Line, quote pricing.Quote, reference string) CreateOrderInput {
	return CreateOrderInput{
		UserID:              identity.UserID,
		Lines:               lines,
		Quote:               quote,
		DeliveryMethod:      req.DeliveryMethod,
		DeliveryAddress:     req.DeliveryAddress,
		Contact:             req.Contact,
		PaymentReference:    reference,
		PaymentMethod:       models.PaymentMethodStripe,
		Currency:            s.cfg.Currency,
		SpecialInstructions: req.SpecialInstructions,
	}
}

func (s *checkoutService) paymentContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.PaymentTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.PaymentTimeout)
}

func (s *checkoutService) metadata(identity Identity) map[string]string {
	return map[string]string{"user_id": strconv.FormatUint(uint64(identity.UserID), 10)}
}

// clearCart runs only after the order is stored; failing to clear is not
// worth failing a paid order over.
func (s *checkoutService) clearCart(ctx context.Context, userID uint) {
	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Warn("Failed to clear cart after checkout")
	}
}

func (s *checkoutService) intentRecord(identity Identity, intent *payment.Intent) *redis.IntentRecord {
	return &redis.IntentRecord{
		IntentID:  intent.ID,
		UserID:    identity.UserID,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		CreatedAt: time.Now(),
	}
}

// logPaymentFailure logs declines at info. Timeouts and provider errors leave
// the charge in an unknown state and are logged at error for reconciliation.
func (s *checkoutService) logPaymentFailure(identity Identity, intentID string, amount int64, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"intent_id": intentID,
		"user_id":   identity.UserID,
		"amount":    amount,
		"currency":  s.cfg.Currency,
		"error":     err.Error(),
	})
	if outcomeUnknown(err) {
		entry.Error("Payment outcome unknown; check the provider before retrying")
		return
	}
	entry.Info("Payment not completed")
}

func outcomeUnknown(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, payment.ErrProvider) ||
		errors.Is(err, payment.ErrUnexpectedState)
}

func declinedFromIntent(intent *payment.Intent) error {
	reason := intent.FailureReason
	if reason == "" {
		switch intent.Status {
		case payment.StatusRequiresAction:
			reason = "Your card requires additional authentication."
		case payment.StatusCanceled:
			reason = "The payment was canceled."
		default:
			reason = "The payment has not been completed."
		}
	}
	return &payment.DeclinedError{Code: string(intent.Status), Reason: reason}
}

func minimumChargeDisplay() string {
	return fmt.Sprintf("%d.%02d", payment.MinimumChargeMinor/100, payment.MinimumChargeMinor%100)
}
