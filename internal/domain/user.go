package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	Token     uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) Expired() bool {
	return s.ExpiresAt.Before(time.Now())
}

// PasswordReset is a single-use credential for setting a new password.
// All tokens for a user are invalidated once one is redeemed.
type PasswordReset struct {
	Token     uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r *PasswordReset) Expired() bool {
	return r.ExpiresAt.Before(time.Now())
}
