package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Bootcamp struct {
	ID          uuid.UUID
	Slug        string
	Title       string
	Description string
	PriceNGN    decimal.Decimal
	PriceUSD    decimal.Decimal
	IsActive    bool
	StartDate   *time.Time
	CreatedAt   time.Time
}

// Price returns the list price for the given currency. The caller must have
// checked the currency against the supported set first.
func (b *Bootcamp) Price(currency string) decimal.Decimal {
	if currency == "NGN" {
		return b.PriceNGN
	}
	return b.PriceUSD
}
