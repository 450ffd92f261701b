package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/middleware"
	"github.com/devdesignhq/enroll/internal/service"
)

type flutterwaveVerifyRequest struct {
	TransactionID     string `json:"transaction_id" binding:"required"`
	BootcampID        string `json:"bootcampId" binding:"required"`
	DiscountCode      string `json:"discountCode"`
	WaitForSettlement bool   `json:"wait_for_settlement"`
}

// handleFlutterwaveVerify is the synchronous redirect-verify channel for the
// NGN rail. The session is mandatory here: the client initiated the payment
// while logged in, so there is no reason to fall back to provider email.
func (h *Handler) handleFlutterwaveVerify(c *gin.Context) {
	var req flutterwaveVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}
	user := middleware.GetUser(c)

	enrich := func(event *domain.PaymentEvent) {
		// The verify API response may omit checkout metadata; the claim from
		// the request only fills gaps and is re-validated by the engine.
		if event.BootcampID == "" {
			event.BootcampID = req.BootcampID
		}
		if event.DiscountCode == "" {
			event.DiscountCode = req.DiscountCode
		}
	}

	event, err := h.flutterwave.Lookup(c.Request.Context(), req.TransactionID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	enrich(event)

	result, err := h.engine.Reconcile(c.Request.Context(), event, user)
	if err != nil {
		slog.Error("reconciliation failed", "transaction_id", req.TransactionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Bank transfers settle late; optionally ride the bounded poll schedule
	// before handing off to the webhook channel.
	if result.Outcome == service.OutcomePending && req.WaitForSettlement {
		result, err = h.poller.Await(c.Request.Context(), h.flutterwave, req.TransactionID, enrich, user)
		if err != nil {
			slog.Error("settlement polling failed", "transaction_id", req.TransactionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	h.respondVerify(c, result)
}

type stripeVerifyRequest struct {
	PaymentIntent string `json:"payment_intent" binding:"required"`
	BootcampID    string `json:"bootcampId" binding:"required"`
	DiscountCode  string `json:"discountCode"`
}

// handleStripeVerify is the synchronous verify channel for the USD rail.
// A session is preferred; without one the engine falls back to the customer
// email Stripe reports in the intent metadata.
func (h *Handler) handleStripeVerify(c *gin.Context) {
	var req stripeVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	event, err := h.stripe.Lookup(c.Request.Context(), req.PaymentIntent)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	if event.BootcampID == "" {
		event.BootcampID = req.BootcampID
	}
	if event.DiscountCode == "" {
		event.DiscountCode = req.DiscountCode
	}

	result, err := h.engine.Reconcile(c.Request.Context(), event, middleware.GetUser(c))
	if err != nil {
		slog.Error("reconciliation failed", "transaction_id", req.PaymentIntent, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	h.respondVerify(c, result)
}

type stripeIntentRequest struct {
	BootcampID   string `json:"bootcampId" binding:"required"`
	DiscountCode string `json:"discountCode"`
}

func (h *Handler) handleStripeIntent(c *gin.Context) {
	var req stripeIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}
	user := middleware.GetUser(c)

	bootcampID, err := uuid.Parse(req.BootcampID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bootcamp not found"})
		return
	}
	bootcamp, err := h.store.GetBootcamp(c.Request.Context(), bootcampID)
	if err != nil {
		if errors.Is(err, domain.ErrBootcampNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bootcamp not found"})
			return
		}
		slog.Error("get bootcamp failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	amount, _, err := h.pricing.Resolve(c.Request.Context(), bootcamp, "USD", req.DiscountCode, time.Now())
	if err != nil {
		slog.Error("resolve price failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	clientSecret, err := h.stripe.CreateIntent(c.Request.Context(), amount, map[string]string{
		"userId":       user.ID.String(),
		"email":        user.Email,
		"bootcampId":   bootcamp.ID.String(),
		"discountCode": req.DiscountCode,
	})
	if err != nil {
		slog.Error("create payment intent failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clientSecret": clientSecret})
}

func (h *Handler) respondVerify(c *gin.Context, result *service.Result) {
	switch result.Outcome {
	case service.OutcomeCommitted:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case service.OutcomeAlreadyProcessed:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already enrolled or transaction already used"})
	case service.OutcomePending:
		c.JSON(http.StatusAccepted, gin.H{
			"success": false,
			"pending": true,
			"message": "Payment is still being processed. Your enrollment will complete once it is confirmed.",
		})
	default:
		c.JSON(rejectionStatus(result.Reason), gin.H{"error": result.Reason.Error()})
	}
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrPaymentNotVerified) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment verification failed"})
		return
	}
	slog.Error("provider lookup failed", "error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable. Please retry or contact support."})
}
