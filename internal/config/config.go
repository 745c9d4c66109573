package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	environmentProduction = "production"
	defaultSessionSecret  = "change-me-studio-session-secret"
)

// Config holds the application configuration.
// It is read once at startup; there is no rotation or per-request override.
type Config struct {
	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Upstream image provider
	// An empty key is not a startup error: the relay reports it per request.
	KieAIAPIKey  string `env:"KIE_AI_API_KEY"`
	KieAIBaseURL string `env:"KIE_AI_BASE_URL" envDefault:"https://api.kie.ai"`

	// Studio sessions
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"change-me-studio-session-secret"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// HTTP
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	// Observability
	SentryDSN string `env:"SENTRY_DSN"` // Sentry DSN for error tracking
}

// Load parses environment variables into Config
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.KieAIAPIKey = strings.TrimSpace(cfg.KieAIAPIKey)
	cfg.KieAIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.KieAIBaseURL), "/")
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	// Session cookies are signed with this secret; a public value lets anyone forge them
	if cfg.IsProduction() && (strings.TrimSpace(cfg.SessionSecret) == "" || cfg.SessionSecret == defaultSessionSecret) {
		return nil, fmt.Errorf("SESSION_SECRET must be set in %s", environmentProduction)
	}
	return cfg, nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == environmentProduction
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}
