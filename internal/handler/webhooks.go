package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/service"
)

// handleFlutterwaveWebhook is the async confirmation channel for the NGN
// rail. The verif-hash gate runs before anything touches the store; no
// detail is leaked on mismatch.
func (h *Handler) handleFlutterwaveWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if err := h.flutterwave.VerifySignature(c.GetHeader("verif-hash"), body); err != nil {
		slog.Warn("flutterwave webhook signature rejected", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	event, err := h.flutterwave.ParseWebhook(body)
	if err != nil {
		slog.Error("flutterwave webhook parse failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	h.processWebhookEvent(c, event)
}

// handleStripeWebhook is the async confirmation channel for the USD rail,
// gated by the HMAC signature over the raw body.
func (h *Handler) handleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if err := h.stripe.VerifySignature(c.GetHeader("Stripe-Signature"), body); err != nil {
		slog.Warn("stripe webhook signature rejected", "client_ip", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
		return
	}

	event, err := h.stripe.ParseWebhook(body)
	if err != nil {
		slog.Error("stripe webhook parse failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	h.processWebhookEvent(c, event)
}

func (h *Handler) processWebhookEvent(c *gin.Context, event *domain.PaymentEvent) {
	// No session on a server-to-server call; the engine resolves the user
	// from the provider-reported customer email.
	result, err := h.engine.Reconcile(c.Request.Context(), event, nil)
	if err != nil {
		slog.Error("webhook reconciliation failed",
			"provider", event.Provider,
			"transaction_id", event.TransactionID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		return
	}

	switch result.Outcome {
	case service.OutcomeCommitted:
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	case service.OutcomeAlreadyProcessed:
		c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
	case service.OutcomePending:
		// The provider will deliver again once the payment settles.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		if errors.Is(result.Reason, domain.ErrPaymentNotVerified) {
			// Not a successful charge; nothing to do and nothing to retry.
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		c.JSON(rejectionStatus(result.Reason), gin.H{"error": result.Reason.Error()})
	}
}
