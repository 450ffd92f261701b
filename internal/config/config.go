package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"3000"`

	// Payment: Flutterwave (NGN cards, bank transfer)
	FlutterwaveSecretKey     string `env:"FLUTTERWAVE_SECRET_KEY"`
	FlutterwaveWebhookSecret string `env:"FLUTTERWAVE_WEBHOOK_SECRET"`
	FlutterwaveURL           string `env:"FLUTTERWAVE_API_URL" envDefault:"https://api.flutterwave.com/v3"`

	// Payment: Stripe (USD cards)
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeURL           string `env:"STRIPE_API_URL" envDefault:"https://api.stripe.com/v1"`

	// SMTP
	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"Dev and Design <learn@devdesignhq.com>"`

	// Operations staff notified after each enrollment
	AdminEmail string `env:"ADMIN_EMAIL"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SMTPConfigured reports whether outbound email can be sent at all.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}
