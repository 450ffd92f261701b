package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/domain"
)

// StripeAdapter handles the USD card rail. Amounts on the wire are in cents;
// the adapter converts to major units before handing events to the engine.
type StripeAdapter struct {
	client        *resty.Client
	webhookSecret string
	now           func() time.Time
}

func NewStripeAdapter(baseURL, secretKey, webhookSecret string) *StripeAdapter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(config.ProviderTimeout)
	return &StripeAdapter{client: client, webhookSecret: webhookSecret, now: time.Now}
}

type stripeIntent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

// Lookup retrieves a PaymentIntent from Stripe.
func (a *StripeAdapter) Lookup(ctx context.Context, transactionID string) (*domain.PaymentEvent, error) {
	var intent stripeIntent
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&intent).
		Get("/payment_intents/" + transactionID)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve intent: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: stripe returned %d", domain.ErrPaymentNotVerified, resp.StatusCode())
	}
	return a.normalize(intent), nil
}

// CreateIntent opens a PaymentIntent for the given USD amount. Metadata
// carries the enrollment claim so the webhook channel can reconstruct it.
func (a *StripeAdapter) CreateIntent(ctx context.Context, amountUSD decimal.Decimal, metadata map[string]string) (clientSecret string, err error) {
	form := map[string]string{
		"amount":                             amountUSD.Mul(decimal.NewFromInt(100)).Round(0).String(),
		"currency":                           "usd",
		"automatic_payment_methods[enabled]": "true",
	}
	for k, v := range metadata {
		form["metadata["+k+"]"] = v
	}

	var intent stripeIntent
	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&intent).
		Post("/payment_intents")
	if err != nil {
		return "", fmt.Errorf("stripe create intent: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("stripe create intent: status %d", resp.StatusCode())
	}
	return intent.ClientSecret, nil
}

// VerifySignature checks the Stripe-Signature header: HMAC-SHA256 over
// "<t>.<body>" with the webhook secret, compared against every v1 entry.
// Missing secret or stale timestamp fails closed.
func (a *StripeAdapter) VerifySignature(signatureHeader string, body []byte) error {
	if a.webhookSecret == "" || signatureHeader == "" {
		return domain.ErrBadSignature
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signatureHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return domain.ErrBadSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.ErrBadSignature
	}
	age := a.now().Sub(time.Unix(ts, 0))
	if age > config.WebhookTimestampTolerance || age < -config.WebhookTimestampTolerance {
		return domain.ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, c := range candidates {
		if hmac.Equal([]byte(expected), []byte(c)) {
			return nil
		}
	}
	return domain.ErrBadSignature
}

type stripeWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object stripeIntent `json:"object"`
	} `json:"data"`
}

func (a *StripeAdapter) ParseWebhook(body []byte) (*domain.PaymentEvent, error) {
	var payload stripeWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode stripe webhook: %w", err)
	}
	event := a.normalize(payload.Data.Object)
	if payload.Type != "payment_intent.succeeded" {
		event.Status = domain.PaymentFailed
	}
	return event, nil
}

func (a *StripeAdapter) normalize(intent stripeIntent) *domain.PaymentEvent {
	return &domain.PaymentEvent{
		Provider:      Stripe,
		TransactionID: intent.ID,
		AmountPaid:    decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)),
		Currency:      strings.ToUpper(intent.Currency),
		BootcampID:    intent.Metadata["bootcampId"],
		DiscountCode:  intent.Metadata["discountCode"],
		CustomerEmail: intent.Metadata["email"],
		Status:        mapStripeStatus(intent.Status),
	}
}

func mapStripeStatus(status string) domain.PaymentStatus {
	switch status {
	case "succeeded":
		return domain.PaymentSuccessful
	case "processing", "requires_action":
		return domain.PaymentPending
	default:
		return domain.PaymentFailed
	}
}
