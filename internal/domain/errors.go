package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidPassword   = errors.New("invalid email or password")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrResetTokenInvalid = errors.New("invalid or expired reset link")
	ErrBootcampNotFound  = errors.New("bootcamp not found")
	ErrAlreadyEnrolled   = errors.New("already enrolled or transaction already used")

	ErrDiscountNotFound    = errors.New("invalid discount code")
	ErrDiscountInactive    = errors.New("this discount code is no longer active")
	ErrDiscountNotYetValid = errors.New("this discount code is not yet valid")
	ErrDiscountExpired     = errors.New("this discount code has expired")
	ErrDiscountExhausted   = errors.New("this discount code has reached its usage limit")

	ErrBadSignature        = errors.New("webhook signature mismatch")
	ErrCurrencyUnsupported = errors.New("unsupported currency")
	ErrAmountMismatch      = errors.New("payment amount does not match bootcamp price")
	ErrPaymentNotVerified  = errors.New("payment verification failed")
)
