package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Database. An empty URL selects the in-memory store.
	DatabaseURL      string        `env:"DATABASE_URL"`
	DatabaseMaxConns int           `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int           `env:"DATABASE_MIN_CONNS" envDefault:"1"`
	DatabaseTimeout  time.Duration `env:"DATABASE_TIMEOUT"   envDefault:"30s"`
	AutoMigrate      bool          `env:"AUTO_MIGRATE"       envDefault:"true"`
	SeedFixture      bool          `env:"SEED_FIXTURE"       envDefault:"true"`

	// Redis (optional - enables idempotency keys, the PDF cache and event fan-out)
	RedisURL     string `env:"REDIS_URL"`
	EventChannel string `env:"EVENT_CHANNEL" envDefault:"finance:events"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"60s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS"  envDefault:"http://localhost:3000,http://localhost:5173" envSeparator:","`

	// Rate limiting, per client IP
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// PDF renderer
	RendererURL    string        `env:"RENDERER_URL"     envDefault:"http://localhost:3001/pdf"`
	RenderTimeout  time.Duration `env:"RENDER_TIMEOUT"   envDefault:"30s"`
	RenderRetries  int           `env:"RENDER_RETRIES"   envDefault:"2"`
	RenderCacheTTL time.Duration `env:"RENDER_CACHE_TTL" envDefault:"1h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Outbox publishing
	OutboxEnabled   bool          `env:"OUTBOX_ENABLED"   envDefault:"true"`
	OutboxInterval  time.Duration `env:"OUTBOX_INTERVAL"  envDefault:"5s"`
	OutboxRetention time.Duration `env:"OUTBOX_RETENTION" envDefault:"168h"`

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Authentication (optional - leave disabled for a trusted network)
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"   envDefault:"retrobus-essonne"`
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
}

// UsesMemoryStore reports whether no database is configured.
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == ""
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations that parse but cannot run safely.
func (c *Config) Validate() error {
	if c.AuthEnabled && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	if c.DatabaseMaxConns < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be positive, got %d", c.DatabaseMaxConns)
	}
	if c.DatabaseMinConns < 0 || c.DatabaseMinConns > c.DatabaseMaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS must be between 0 and %d, got %d", c.DatabaseMaxConns, c.DatabaseMinConns)
	}
	if c.RenderRetries < 0 {
		return fmt.Errorf("RENDER_RETRIES must not be negative, got %d", c.RenderRetries)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT must be positive, got %s", c.RenderTimeout)
	}
	return nil
}
