// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Session tokens issued by the external identity provider
	SessionSecret string `env:"SESSION_SECRET,required"`
	SessionIssuer string `env:"SESSION_ISSUER" envDefault:"artifyai-identity"`

	// Identity provider lifecycle webhook
	IdentityWebhookSecret string `env:"IDENTITY_WEBHOOK_SECRET" envDefault:""`

	// Image delivery CDN
	CDNBaseURL string `env:"CDN_BASE_URL" envDefault:"https://res.cloudinary.com"`
	CDNCloud   string `env:"CDN_CLOUD,required"`

	// Credits
	CreditFee     int `env:"CREDIT_FEE" envDefault:"1"`
	SignupCredits int `env:"SIGNUP_CREDITS" envDefault:"10"`

	// Checkout provider
	CheckoutProviderURL   string `env:"CHECKOUT_PROVIDER_URL" envDefault:""`
	CheckoutAPIKey        string `env:"CHECKOUT_API_KEY" envDefault:""`
	CheckoutWebhookSecret string `env:"CHECKOUT_WEBHOOK_SECRET" envDefault:""`
	CheckoutReturnURL     string `env:"CHECKOUT_RETURN_URL" envDefault:"http://localhost:8080/checkout/result"`

	// Workflow sessions
	SessionTTL      time.Duration `env:"WORKFLOW_SESSION_TTL" envDefault:"30m"`
	EditQuietWindow time.Duration `env:"EDIT_QUIET_WINDOW" envDefault:"500ms"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPM     int  `env:"RATE_LIMIT_RPM" envDefault:"120"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Per-IP rate limiting for webhook endpoints
	RateLimitIPEnabled bool `env:"RATE_LIMIT_IP_ENABLED" envDefault:"true"`
	RateLimitIPRPS     int  `env:"RATE_LIMIT_IP_RPS" envDefault:"10"`
	RateLimitIPBurst   int  `env:"RATE_LIMIT_IP_BURST" envDefault:"20"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://artifyai.app")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
