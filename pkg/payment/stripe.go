package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	api       *client.API
	returnURL string
	logger    *logrus.Logger
}

func NewStripeGateway(secretKey, returnURL string, logger *logrus.Logger) *StripeGateway {
	return &StripeGateway{
		api:       client.New(secretKey, nil),
		returnURL: returnURL,
		logger:    logger,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, g.translate(ctx, err, "create")
	}

	g.logger.WithFields(logrus.Fields{
		"payment_intent": pi.ID,
		"amount":         amount,
		"currency":       currency,
	}).Info("Payment intent created")

	return fromStripe(pi), nil
}

func (g *StripeGateway) Confirm(ctx context.Context, intentID, paymentMethod string) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	if g.returnURL != "" {
		params.ReturnURL = stripe.String(g.returnURL)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return nil, g.translate(ctx, err, "confirm")
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, g.translate(ctx, err, "get")
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) translate(ctx context.Context, err error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("stripe %s: %w", op, ctxErr)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		g.logger.WithFields(logrus.Fields{
			"operation":  op,
			"type":       stripeErr.Type,
			"code":       stripeErr.Code,
			"request_id": stripeErr.RequestID,
		}).Warn("Stripe request failed")

		switch {
		case stripeErr.Type == stripe.ErrorTypeCard:
			return &DeclinedError{Code: string(stripeErr.Code), Reason: stripeErr.Msg}
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrIntentNotFound, stripeErr.Msg)
		case stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState:
			return fmt.Errorf("%w: %s", ErrUnexpectedState, stripeErr.Msg)
		}
		return fmt.Errorf("%w: %s", ErrProvider, stripeErr.Msg)
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       Status(pi.Status),
	}
	if pi.LastPaymentError != nil {
		intent.FailureReason = pi.LastPaymentError.Msg
	}
	return intent
}
