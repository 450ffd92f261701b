package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type DiscountCode struct {
	ID              uuid.UUID
	Code            string
	Description     string
	DiscountPercent int
	IsActive        bool
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	MaxUses         *int
	CurrentUses     int
	CreatedAt       time.Time
}

// NormalizeCode canonicalizes a user-supplied discount code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Eligible reports whether the code may be applied at the given instant.
// Eligibility is a pure check; consuming a use is a separate step owned by
// the reconciliation commit.
func (d *DiscountCode) Eligible(now time.Time) bool {
	return d.EligibilityError(now) == nil
}

// EligibilityError returns the specific reason a code cannot be applied,
// or nil when it can.
func (d *DiscountCode) EligibilityError(now time.Time) error {
	if !d.IsActive {
		return ErrDiscountInactive
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return ErrDiscountNotYetValid
	}
	if d.ValidUntil != nil && now.After(*d.ValidUntil) {
		return ErrDiscountExpired
	}
	if d.MaxUses != nil && d.CurrentUses >= *d.MaxUses {
		return ErrDiscountExhausted
	}
	return nil
}
