package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/domain"
)

// FlutterwaveAdapter handles the NGN card-redirect and bank-transfer rail.
type FlutterwaveAdapter struct {
	client        *resty.Client
	webhookSecret string
}

func NewFlutterwaveAdapter(baseURL, secretKey, webhookSecret string) *FlutterwaveAdapter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(config.ProviderTimeout)
	return &FlutterwaveAdapter{client: client, webhookSecret: webhookSecret}
}

type flwTransaction struct {
	ID       json.Number     `json:"id"`
	TxRef    string          `json:"tx_ref"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	Meta struct {
		BootcampID   string `json:"bootcampId"`
		DiscountCode string `json:"discountCode"`
	} `json:"meta"`
}

type flwVerifyResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    flwTransaction `json:"data"`
}

// Lookup calls Flutterwave's transaction-verify API. The returned event
// carries only provider-reported fields.
func (a *FlutterwaveAdapter) Lookup(ctx context.Context, transactionID string) (*domain.PaymentEvent, error) {
	var result flwVerifyResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/transactions/%s/verify", transactionID))
	if err != nil {
		return nil, fmt.Errorf("flutterwave verify request: %w", err)
	}
	if resp.IsError() || result.Status != "success" {
		return nil, fmt.Errorf("%w: flutterwave reported %q", domain.ErrPaymentNotVerified, result.Status)
	}
	return a.normalize(result.Data), nil
}

// VerifySignature compares the verif-hash header against the pre-shared
// secret. A missing secret fails closed.
func (a *FlutterwaveAdapter) VerifySignature(signatureHeader string, _ []byte) error {
	if a.webhookSecret == "" || signatureHeader != a.webhookSecret {
		return domain.ErrBadSignature
	}
	return nil
}

type flwWebhookPayload struct {
	Event string         `json:"event"`
	Data  flwTransaction `json:"data"`
}

func (a *FlutterwaveAdapter) ParseWebhook(body []byte) (*domain.PaymentEvent, error) {
	var payload flwWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode flutterwave webhook: %w", err)
	}
	event := a.normalize(payload.Data)
	if payload.Event != "charge.completed" {
		event.Status = domain.PaymentFailed
	}
	return event, nil
}

func (a *FlutterwaveAdapter) normalize(tx flwTransaction) *domain.PaymentEvent {
	return &domain.PaymentEvent{
		Provider:      Flutterwave,
		TransactionID: tx.ID.String(),
		AmountPaid:    tx.Amount,
		Currency:      tx.Currency,
		BootcampID:    tx.Meta.BootcampID,
		DiscountCode:  tx.Meta.DiscountCode,
		CustomerEmail: tx.Customer.Email,
		Status:        mapFlutterwaveStatus(tx.Status),
	}
}

func mapFlutterwaveStatus(status string) domain.PaymentStatus {
	switch status {
	case "successful":
		return domain.PaymentSuccessful
	case "pending":
		return domain.PaymentPending
	default:
		return domain.PaymentFailed
	}
}
