package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates all runtime configuration, parsed from environment
// variables (optionally seeded from a .env file).
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Gemini   GeminiConfig
	IntaSend IntaSendConfig
}

type ServerConfig struct {
	Addr               string        `env:"SERVER_ADDR" envDefault:":8000"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout    time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimitPerSecond int           `env:"SERVER_RATE_LIMIT_PER_SECOND" envDefault:"20"`
	RateLimitBurst     int           `env:"SERVER_RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins []string      `env:"SERVER_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	MetricsEnabled     bool          `env:"SERVER_METRICS_ENABLED" envDefault:"true"`
}

type DatabaseConfig struct {
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Name     string `env:"POSTGRES_DB" envDefault:"pantrychef"`
	SSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// DSN builds the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	SessionSecret string        `env:"SESSION_SECRET"`
	TokenTTL      time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
}

// IntaSendConfig selects between sandbox and production credentials via
// the test mode flag, mirroring the gateway's two environments.
type IntaSendConfig struct {
	TestMode      bool   `env:"INTASEND_TEST_MODE" envDefault:"true"`
	PublicKeyTest string `env:"INTASEND_PUBLIC_KEY_TEST"`
	SecretKeyTest string `env:"INTASEND_SECRET_KEY_TEST"`
	PublicKeyLive string `env:"INTASEND_PUBLIC_KEY_LIVE"`
	SecretKeyLive string `env:"INTASEND_SECRET_KEY_LIVE"`
	WebhookSecret string `env:"INTASEND_WEBHOOK_SECRET"`
	RedirectURL   string `env:"INTASEND_REDIRECT_URL" envDefault:"http://localhost:8000/api/v1/payments/callback"`
	// BaseURLOverride is used by tests to point the client at a local
	// server; empty in normal operation.
	BaseURLOverride string `env:"INTASEND_BASE_URL"`
}

const (
	sandboxBaseURL    = "https://sandbox.intasend.com"
	productionBaseURL = "https://payment.intasend.com"
)

// BaseURL returns the gateway endpoint for the configured mode.
func (c IntaSendConfig) BaseURL() string {
	if c.BaseURLOverride != "" {
		return c.BaseURLOverride
	}
	if c.TestMode {
		return sandboxBaseURL
	}
	return productionBaseURL
}

// Keys returns the public/secret key pair for the configured mode.
func (c IntaSendConfig) Keys() (publicKey, secretKey string) {
	if c.TestMode {
		return c.PublicKeyTest, c.SecretKeyTest
	}
	return c.PublicKeyLive, c.SecretKeyLive
}

// Load reads the optional .env file and parses the environment into a
// Config.
func Load() (*Config, error) {
	// The .env file is a development convenience; absence is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
