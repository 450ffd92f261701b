package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	enrollroot "github.com/devdesignhq/enroll"
	"github.com/devdesignhq/enroll/internal/config"
	"github.com/devdesignhq/enroll/internal/handler"
	"github.com/devdesignhq/enroll/internal/middleware"
	"github.com/devdesignhq/enroll/internal/notify"
	"github.com/devdesignhq/enroll/internal/provider"
	"github.com/devdesignhq/enroll/internal/repository"
	"github.com/devdesignhq/enroll/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(enrollroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	schemaVersion, err := repository.Migrate(cfg.DatabaseURL, migrationsFS)
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "schema_version", schemaVersion)

	store := repository.NewPostgresStore(pool)

	// Notifications are best effort; without SMTP they log and skip.
	var sender notify.EmailSender
	if cfg.SMTPConfigured() {
		sender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		slog.Warn("SMTP not configured, notification emails disabled")
	}
	mailer := notify.NewMailer(sender, cfg.AdminEmail)

	// Initialize services
	authService := service.NewAuthService(store)
	pricingService := service.NewPricingService(store)
	engine := service.NewReconciliationService(store, pricingService, mailer)
	poller := service.NewPoller(engine, config.SettlementPollAttempts, config.SettlementPollDelay)

	flutterwave := provider.NewFlutterwaveAdapter(cfg.FlutterwaveURL, cfg.FlutterwaveSecretKey, cfg.FlutterwaveWebhookSecret)
	stripe := provider.NewStripeAdapter(cfg.StripeURL, cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	h := handler.New(handler.Deps{
		Cfg:         cfg,
		Store:       store,
		Auth:        authService,
		Pricing:     pricingService,
		Engine:      engine,
		Poller:      poller,
		Flutterwave: flutterwave,
		Stripe:      stripe,
		Mailer:      mailer,
		Limiter:     middleware.NewLimiter(),
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recover(), middleware.Logging())
	h.Register(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		slog.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	slog.Info("server stopped gracefully")
}
