package domain

import (
	"time"

	"github.com/google/uuid"
)

const EnrollmentStatusEnrolled = "enrolled"

// Enrollment is the durable record that a user has paid for and been granted
// access to a bootcamp. Created exactly once by the reconciliation engine,
// never updated.
type Enrollment struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	BootcampID     uuid.UUID
	TransactionID  *string
	Status         string
	DiscountCodeID *uuid.UUID
	EnrolledAt     time.Time
}

func NewEnrollment(userID, bootcampID uuid.UUID, transactionID string, discountCodeID *uuid.UUID) *Enrollment {
	e := &Enrollment{
		ID:             uuid.New(),
		UserID:         userID,
		BootcampID:     bootcampID,
		Status:         EnrollmentStatusEnrolled,
		DiscountCodeID: discountCodeID,
		EnrolledAt:     time.Now(),
	}
	if transactionID != "" {
		e.TransactionID = &transactionID
	}
	return e
}
