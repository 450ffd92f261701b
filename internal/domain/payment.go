package domain

import "github.com/shopspring/decimal"

// PaymentStatus is the provider's reported transaction state, normalized.
type PaymentStatus string

const (
	PaymentSuccessful PaymentStatus = "successful"
	PaymentPending    PaymentStatus = "pending"
	PaymentFailed     PaymentStatus = "failed"
)

// PaymentEvent is the normalized confirmation a provider adapter produces
// from a wire payload. Only provider-reported fields are trusted; nothing
// here comes from the client except the bootcamp/discount hints, which are
// re-validated against the store before any write.
type PaymentEvent struct {
	Provider      string
	TransactionID string
	AmountPaid    decimal.Decimal
	Currency      string
	BootcampID    string
	DiscountCode  string
	CustomerEmail string
	Status        PaymentStatus
}
