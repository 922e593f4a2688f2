package config

import (
	"fmt"
	"os"
	"time"
)

const defaultSolveTimeout = 10 * time.Second

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Persistence. Empty disables run storage.
	// - "postgres://...": Postgres via gorm
	// - "sqlite://path": SQLite file
	DatabaseURL string

	// Observability
	SentryDSN           string // Sentry DSN for error tracking
	CloudWatchNamespace string // CloudWatch metrics namespace (production only)

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": Validate HS256 bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Solver
	CostProfilePath string        // Optional YAML cost profile
	SolveTimeout    time.Duration // Per-call deadline for harmonize/voicelead
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "MAGDA/Harmony"),
		AuthMode:            getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		JWTSecret:           getEnv("JWT_SECRET", ""),
		CostProfilePath:     getEnv("COST_PROFILE_PATH", ""),
		SolveTimeout:        defaultSolveTimeout,
	}

	if raw := os.Getenv("SOLVE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SOLVE_TIMEOUT %q", raw)
		}
		cfg.SolveTimeout = d
	}

	switch cfg.AuthMode {
	case "none", "gateway":
	case "jwt":
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true if bearer tokens are validated locally
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}

// IsProduction returns true in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PersistenceEnabled returns true when a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
