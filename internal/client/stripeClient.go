package client

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/webhook"

	"salonsites-backend/internal/config"
)

type StripeClient interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

type stripeClientImpl struct {
	webhookSecret string
}

func NewStripeClient(cfg *config.Stripe) StripeClient {
	stripe.Key = cfg.SecretKey

	return &stripeClientImpl{
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *stripeClientImpl) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}

	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", id, err)
	}

	return pi, nil
}

func (c *stripeClientImpl) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(
		payload,
		signature,
		c.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
}
