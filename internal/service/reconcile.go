package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/repository"
)

// Outcome is the terminal state a payment event reaches in the engine.
type Outcome string

const (
	OutcomeCommitted        Outcome = "committed"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeRejected         Outcome = "rejected"
	OutcomePending          Outcome = "pending"
)

// Result reports what the engine decided for one payment event.
type Result struct {
	Outcome         Outcome
	Reason          error
	Enrollment      *domain.Enrollment
	DiscountApplied bool
}

// Notifier delivers post-commit notifications. Best effort only; failures
// must never affect the commit.
type Notifier interface {
	EnrollmentConfirmed(email, bootcampTitle string)
	AdminEnrollmentAlert(email, bootcampTitle string)
}

// ReconciliationService converts validated payment events into enrollments.
// It is the single authority for the commit: every channel (client verify,
// webhook, poll retry) converges here, and the database's two uniqueness
// constraints decide which concurrent attempt wins.
type ReconciliationService struct {
	store    repository.Store
	pricing  *PricingService
	notifier Notifier
	now      func() time.Time
}

func NewReconciliationService(store repository.Store, pricing *PricingService, notifier Notifier) *ReconciliationService {
	return &ReconciliationService{store: store, pricing: pricing, notifier: notifier, now: time.Now}
}

// Reconcile runs one payment event through the full accept/reject decision.
// actor is the authenticated session user when the channel has one; for
// server-to-server channels it is nil and the provider-reported customer
// email resolves the user instead. A returned error means an internal
// failure only; every business decision lands in the Result.
func (s *ReconciliationService) Reconcile(ctx context.Context, event *domain.PaymentEvent, actor *domain.User) (*Result, error) {
	log := slog.With("provider", event.Provider, "transaction_id", event.TransactionID)

	switch event.Status {
	case domain.PaymentSuccessful:
	case domain.PaymentPending:
		log.Info("payment still settling")
		return &Result{Outcome: OutcomePending}, nil
	default:
		log.Info("payment not successful, ignoring", "status", event.Status)
		return &Result{Outcome: OutcomeRejected, Reason: domain.ErrPaymentNotVerified}, nil
	}

	// Step 1: resolve identity. Never create a user from payment data.
	user := actor
	if user == nil {
		if event.CustomerEmail == "" {
			log.Warn("no session and no customer email on event")
			return &Result{Outcome: OutcomeRejected, Reason: domain.ErrUserNotFound}, nil
		}
		var err error
		user, err = s.store.GetUserByEmail(ctx, event.CustomerEmail)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				log.Warn("no user for provider-reported email", "email", event.CustomerEmail)
				return &Result{Outcome: OutcomeRejected, Reason: domain.ErrUserNotFound}, nil
			}
			return nil, fmt.Errorf("resolve user: %w", err)
		}
	}

	// Step 2: resolve target.
	bootcampID, err := uuid.Parse(event.BootcampID)
	if err != nil {
		return &Result{Outcome: OutcomeRejected, Reason: domain.ErrBootcampNotFound}, nil
	}
	bootcamp, err := s.store.GetBootcamp(ctx, bootcampID)
	if err != nil {
		if errors.Is(err, domain.ErrBootcampNotFound) {
			return &Result{Outcome: OutcomeRejected, Reason: domain.ErrBootcampNotFound}, nil
		}
		return nil, fmt.Errorf("get bootcamp: %w", err)
	}

	// Currency gate before any amount comparison.
	if !config.IsSupportedCurrency(event.Currency) {
		log.Warn("unsupported currency", "currency", event.Currency)
		return &Result{Outcome: OutcomeRejected, Reason: domain.ErrCurrencyUnsupported}, nil
	}

	// Step 3: expected price, with any eligible discount.
	expected, discount, err := s.pricing.Resolve(ctx, bootcamp, event.Currency, event.DiscountCode, s.now())
	if err != nil {
		return nil, fmt.Errorf("resolve price: %w", err)
	}

	// Step 4: overpayment is fine, underpayment never is.
	if event.AmountPaid.LessThan(expected) {
		log.Warn("amount below expected price",
			"paid", event.AmountPaid.String(),
			"expected", expected.String(),
			"currency", event.Currency,
		)
		return &Result{Outcome: OutcomeRejected, Reason: domain.ErrAmountMismatch}, nil
	}

	// Step 5: idempotency. A retried confirmation of the same transaction or
	// a second transaction for an enrolled user both land here.
	existing, err := s.store.FindEnrollment(ctx, user.ID, bootcamp.ID, event.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if existing != nil {
		log.Info("already processed", "enrollment_id", existing.ID)
		return &Result{Outcome: OutcomeAlreadyProcessed, Enrollment: existing}, nil
	}

	// Step 6: the atomic commit. The losing side of a concurrent race sees
	// the constraint violation and reports ALREADY_PROCESSED, not an error.
	var discountID *uuid.UUID
	if discount != nil {
		discountID = &discount.ID
	}
	enrollment := domain.NewEnrollment(user.ID, bootcamp.ID, event.TransactionID, discountID)
	applied, err := s.store.CreateEnrollment(ctx, enrollment)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			log.Info("lost commit race, already processed")
			return &Result{Outcome: OutcomeAlreadyProcessed}, nil
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	log.Info("enrollment committed",
		"enrollment_id", enrollment.ID,
		"user_id", user.ID,
		"bootcamp", bootcamp.Slug,
		"discount_applied", applied,
	)

	// Step 7: fire-and-forget notifications, outside the transaction.
	if s.notifier != nil {
		go s.notifier.EnrollmentConfirmed(user.Email, bootcamp.Title)
		go s.notifier.AdminEnrollmentAlert(user.Email, bootcamp.Title)
	}

	return &Result{Outcome: OutcomeCommitted, Enrollment: enrollment, DiscountApplied: applied}, nil
}
