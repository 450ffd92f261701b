package service

import (
	"context"
	"fmt"
	"time"

	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/provider"
)

// Poller drives the bounded retry loop for delayed-settlement methods such
// as bank transfers. It re-verifies the transaction on a fixed schedule
// until the engine reaches a terminal outcome or the attempt budget runs
// out, after which the webhook channel remains the source of truth.
type Poller struct {
	engine   *ReconciliationService
	attempts int
	delay    time.Duration
}

func NewPoller(engine *ReconciliationService, attempts int, delay time.Duration) *Poller {
	return &Poller{engine: engine, attempts: attempts, delay: delay}
}

// Await polls the provider until the event settles. enrich patches channel
// context (bootcamp id, discount code) onto each freshly looked-up event
// before reconciliation. When the budget is exhausted the result is
// OutcomePending and the caller reports "processing" to the user.
func (p *Poller) Await(ctx context.Context, verifier provider.Verifier, transactionID string, enrich func(*domain.PaymentEvent), actor *domain.User) (*Result, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(p.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		event, err := verifier.Lookup(ctx, transactionID)
		if err != nil {
			return nil, fmt.Errorf("poll attempt %d: %w", attempt, err)
		}
		if enrich != nil {
			enrich(event)
		}

		result, err := p.engine.Reconcile(ctx, event, actor)
		if err != nil {
			return nil, err
		}
		if result.Outcome != OutcomePending {
			return result, nil
		}
	}
	return &Result{Outcome: OutcomePending}, nil
}
