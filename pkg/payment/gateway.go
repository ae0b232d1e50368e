// Package payment wraps the card payment provider. Amounts are always in
// minor currency units.
package payment

import (
	"context"
	"errors"
	"fmt"
)

// MinimumChargeMinor is the smallest amount the provider accepts (0.50).
const MinimumChargeMinor int64 = 50

type Status string

const (
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresConfirmation  Status = "requires_confirmation"
	StatusRequiresAction        Status = "requires_action"
	StatusProcessing            Status = "processing"
	StatusSucceeded             Status = "succeeded"
	StatusCanceled              Status = "canceled"
)

type Intent struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        Status `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrDeclined        = errors.New("payment declined")
	ErrIntentNotFound  = errors.New("payment intent not found")
	ErrUnexpectedState = errors.New("payment intent in unexpected state")
	ErrProvider        = errors.New("payment provider error")
)

// DeclinedError carries the provider's own explanation. Error returns it
// unchanged so it can be shown to the customer as-is.
type DeclinedError struct {
	Code   string
	Reason string
}

func (e *DeclinedError) Error() string {
	return e.Reason
}

func (e *DeclinedError) Is(target error) bool {
	return target == ErrDeclined
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	Confirm(ctx context.Context, intentID, paymentMethod string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}

func ValidateAmount(amount int64) error {
	if amount < MinimumChargeMinor {
		return fmt.Errorf("%w: %d is below the minimum of %d", ErrInvalidAmount, amount, MinimumChargeMinor)
	}
	return nil
}
