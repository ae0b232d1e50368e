package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Payment method tokens understood by FakeGateway, named after the
// provider's test cards.
const (
	TestCardVisa              = "pm_card_visa"
	TestCardDeclined          = "pm_card_chargeDeclined"
	TestCardInsufficientFunds = "pm_card_chargeDeclinedInsufficientFunds"
	TestCardRequiresAction    = "pm_card_authenticationRequired"
)

// FakeGateway keeps intents in memory. It backs local development
// (PAYMENT_PROVIDER=fake) and tests.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent
	created int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]*Intent)}
}

func (g *FakeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Amount:       amount,
		Currency:     currency,
		Status:       StatusRequiresPaymentMethod,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id] = intent
	g.created++

	copied := *intent
	return &copied, nil
}

func (g *FakeGateway) Confirm(ctx context.Context, intentID, paymentMethod string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIntentNotFound, intentID)
	}
	if intent.Status == StatusSucceeded || intent.Status == StatusCanceled {
		return nil, fmt.Errorf("%w: intent is %s", ErrUnexpectedState, intent.Status)
	}

	switch paymentMethod {
	case "":
		return nil, &DeclinedError{Code: "payment_method_missing", Reason: "A payment method is required."}
	case TestCardDeclined:
		intent.FailureReason = "Your card was declined."
		return nil, &DeclinedError{Code: "card_declined", Reason: intent.FailureReason}
	case TestCardInsufficientFunds:
		intent.FailureReason = "Your card has insufficient funds."
		return nil, &DeclinedError{Code: "card_declined", Reason: intent.FailureReason}
	case TestCardRequiresAction:
		intent.Status = StatusRequiresAction
	default:
		intent.Status = StatusSucceeded
		intent.FailureReason = ""
	}

	copied := *intent
	return &copied, nil
}

func (g *FakeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIntentNotFound, intentID)
	}
	copied := *intent
	return &copied, nil
}

// IntentCount reports how many intents were ever created.
func (g *FakeGateway) IntentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created
}
