// Package provider normalizes payment-provider confirmations into
// domain.PaymentEvent values and authenticates the channel they arrive on.
// Adapters trust only the provider's own API responses, never client-echoed
// amount/currency/status fields.
package provider

import (
	"context"

	"github.com/devdesignhq/enroll/internal/domain"
)

const (
	Flutterwave = "flutterwave"
	Stripe      = "stripe"
)

// Verifier looks a transaction up at the provider and returns the
// authoritative, normalized event.
type Verifier interface {
	Lookup(ctx context.Context, transactionID string) (*domain.PaymentEvent, error)
}

// WebhookAdapter authenticates and parses an inbound webhook delivery.
// VerifySignature must fail closed: a missing secret rejects everything.
type WebhookAdapter interface {
	VerifySignature(signatureHeader string, body []byte) error
	ParseWebhook(body []byte) (*domain.PaymentEvent, error)
}
