// Package config handles loading and managing application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Checkout-facing settings
	App AppConfig

	// Security settings
	Security SecurityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// AppConfig holds settings used when talking to payment providers
// and vendor webhook destinations.
type AppConfig struct {
	// PublicBaseURL is the externally reachable base URL of this service.
	// Providers deliver their webhooks to <PublicBaseURL>/webhooks/<gateway>.
	PublicBaseURL string

	// ThankYouURL is where credit-card buyers are redirected after approval.
	ThankYouURL string

	// GatewayTimeout bounds every outbound call to a payment provider.
	GatewayTimeout time.Duration

	// VendorTimeout bounds each vendor webhook delivery.
	VendorTimeout time.Duration

	// PixExpiry is how long generated PIX charges stay payable.
	PixExpiry time.Duration

	// BoletoExpiry is how long generated boletos stay payable.
	BoletoExpiry time.Duration
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// MPWebhookSecret enables Mercado Pago x-signature validation when set.
	MPWebhookSecret string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present; real environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		App: AppConfig{
			PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			ThankYouURL:    getEnv("THANK_YOU_URL", ""),
			GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),
			VendorTimeout:  getEnvDuration("VENDOR_WEBHOOK_TIMEOUT", 10*time.Second),
			PixExpiry:      getEnvDuration("PIX_EXPIRY", 30*time.Minute),
			BoletoExpiry:   getEnvDuration("BOLETO_EXPIRY", 72*time.Hour),
		},
		Security: SecurityConfig{
			MPWebhookSecret: getEnv("MP_WEBHOOK_SECRET", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that required configuration values are set.
func (c *Config) validate() error {
	if c.App.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves an environment variable as a duration with a fallback.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
