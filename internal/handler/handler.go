package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/domain"
	"github.com/devdesignhq/enroll/internal/middleware"
	"github.com/devdesignhq/enroll/internal/notify"
	"github.com/devdesignhq/enroll/internal/provider"
	"github.com/devdesignhq/enroll/internal/repository"
	"github.com/devdesignhq/enroll/internal/service"
)

// FlutterwaveProvider is the Flutterwave adapter surface the handlers use.
type FlutterwaveProvider interface {
	provider.Verifier
	provider.WebhookAdapter
}

// StripeProvider is the Stripe adapter surface the handlers use.
type StripeProvider interface {
	provider.Verifier
	provider.WebhookAdapter
	CreateIntent(ctx context.Context, amountUSD decimal.Decimal, metadata map[string]string) (string, error)
}

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg         *config.Config
	store       repository.Store
	auth        *service.AuthService
	pricing     *service.PricingService
	engine      *service.ReconciliationService
	poller      *service.Poller
	flutterwave FlutterwaveProvider
	stripe      StripeProvider
	mailer      *notify.Mailer
	limiter     *middleware.Limiter
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg         *config.Config
	Store       repository.Store
	Auth        *service.AuthService
	Pricing     *service.PricingService
	Engine      *service.ReconciliationService
	Poller      *service.Poller
	Flutterwave FlutterwaveProvider
	Stripe      StripeProvider
	Mailer      *notify.Mailer
	Limiter     *middleware.Limiter
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:         deps.Cfg,
		store:       deps.Store,
		auth:        deps.Auth,
		pricing:     deps.Pricing,
		engine:      deps.Engine,
		poller:      deps.Poller,
		flutterwave: deps.Flutterwave,
		stripe:      deps.Stripe,
		mailer:      deps.Mailer,
		limiter:     deps.Limiter,
	}
}

// Register wires every route onto the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	api.Use(middleware.UserLoader(func(c *gin.Context, token string) (*domain.User, error) {
		return h.auth.ResolveSession(c.Request.Context(), token)
	}))

	api.POST("/register",
		middleware.RateLimit(h.limiter, "register", config.RateLimitRegisterAttempts, config.RateLimitRegisterWindow),
		h.handleRegister)
	api.POST("/login",
		middleware.RateLimit(h.limiter, "login", config.RateLimitLoginAttempts, config.RateLimitLoginWindow),
		h.handleLogin)
	api.POST("/auth/reset-password",
		middleware.RateLimit(h.limiter, "reset", config.RateLimitResetAttempts, config.RateLimitResetWindow),
		h.handleResetPassword)
	api.POST("/auth/reset-password/confirm", h.handleConfirmReset)

	api.GET("/bootcamps", h.handleListBootcamps)

	api.POST("/discount/validate",
		middleware.RateLimit(h.limiter, "discount", config.RateLimitDiscountAttempts, config.RateLimitDiscountWindow),
		middleware.RequireAuth(),
		h.handleValidateDiscount)

	api.POST("/payments/stripe/intent", middleware.RequireAuth(), h.handleStripeIntent)
	api.POST("/payments/flutterwave/verify", middleware.RequireAuth(), h.handleFlutterwaveVerify)
	api.POST("/payments/stripe/verify", h.handleStripeVerify)

	api.POST("/webhooks/flutterwave", h.handleFlutterwaveWebhook)
	api.POST("/webhooks/stripe", h.handleStripeWebhook)
}

// rejectionStatus maps an engine rejection reason to an HTTP status.
func rejectionStatus(reason error) int {
	switch {
	case errors.Is(reason, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(reason, domain.ErrBootcampNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
