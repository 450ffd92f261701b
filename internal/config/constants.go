package config

import "time"

const (
	// Session lifetime
	SessionTTL = 7 * 24 * time.Hour

	// Password reset token lifetime
	PasswordResetTTL = time.Hour

	// Delayed-settlement polling (bank transfers): bounded, fixed schedule
	SettlementPollAttempts = 5
	SettlementPollDelay    = 3 * time.Second

	// Provider API timeout
	ProviderTimeout = 30 * time.Second

	// Connection pool sizing. Requests hold a connection only for short
	// reads or the single enrollment commit transaction.
	DBMaxConns    = 10
	DBMinConns    = 2
	DBPingTimeout = 5 * time.Second

	// Stripe webhook signature tolerance
	WebhookTimestampTolerance = 5 * time.Minute

	// Rate limits (sliding window)
	RateLimitDiscountAttempts = 5
	RateLimitDiscountWindow   = time.Minute
	RateLimitRegisterAttempts = 3
	RateLimitRegisterWindow   = time.Minute
	RateLimitLoginAttempts    = 10
	RateLimitLoginWindow      = time.Minute
	RateLimitResetAttempts    = 3
	RateLimitResetWindow      = time.Minute

	// Email delivery retries
	EmailMaxAttempts  = 3
	EmailInitialDelay = time.Second

	// bcrypt work factor
	PasswordHashCost = 12
)

// SupportedCurrencies lists the currencies a payment may settle in.
var SupportedCurrencies = []string{"NGN", "USD"}

// IsSupportedCurrency reports whether the given ISO code is accepted.
func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}
