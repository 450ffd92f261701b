package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/repository"
)

var percentBase = decimal.NewFromInt(100)

// PricingService computes the expected charge for a bootcamp/currency pair
// and decides discount eligibility. Validation here is pure and repeatable;
// consuming a use belongs to the reconciliation commit.
type PricingService struct {
	store repository.Store
}

func NewPricingService(store repository.Store) *PricingService {
	return &PricingService{store: store}
}

// Resolve returns the expected amount for the bootcamp in the given currency,
// discounted when code names an eligible discount. An absent, inactive,
// out-of-window or exhausted code silently falls back to the base price:
// a stale code carried by an async confirmation must not block a settlement
// the user already completed.
func (s *PricingService) Resolve(ctx context.Context, bootcamp *domain.Bootcamp, currency, code string, now time.Time) (decimal.Decimal, *domain.DiscountCode, error) {
	base := bootcamp.Price(currency)
	if code == "" {
		return base, nil, nil
	}

	discount, err := s.store.GetDiscountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrDiscountNotFound) {
			return base, nil, nil
		}
		return decimal.Zero, nil, fmt.Errorf("get discount: %w", err)
	}
	if !discount.Eligible(now) {
		return base, nil, nil
	}

	return ApplyDiscount(base, discount.DiscountPercent), discount, nil
}

// Validate is the strict pre-payment check backing the discount-validation
// endpoint. Unlike Resolve it surfaces the exact reason a code cannot be
// used.
func (s *PricingService) Validate(ctx context.Context, code string, now time.Time) (*domain.DiscountCode, error) {
	discount, err := s.store.GetDiscountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := discount.EligibilityError(now); err != nil {
		return nil, err
	}
	return discount, nil
}

// ApplyDiscount rounds half-up to the nearest whole unit of the currency,
// matching what the checkout page charged.
func ApplyDiscount(base decimal.Decimal, percent int) decimal.Decimal {
	factor := percentBase.Sub(decimal.NewFromInt(int64(percent))).Div(percentBase)
	return base.Mul(factor).Round(0)
}
