package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes the ledger cares about.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
	pgErrUniqueViolation      = "23505"
)

// RetryConfig bounds how long a conflicting ledger mutation is replayed.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig suits the handful of concurrent treasurers the service
// sees: a few quick replays, then the conflict is reported.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     4,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier replays a whole unit of work when Postgres aborted it because of a
// lock conflict, or when the connection failed before anything was sent.
type Retrier struct {
	cfg RetryConfig
}

// NewRetrier creates a Retrier with DefaultRetryConfig.
func NewRetrier() *Retrier {
	return NewRetrierWithConfig(DefaultRetryConfig)
}

// NewRetrierWithConfig creates a Retrier; zero fields fall back to the defaults.
func NewRetrierWithConfig(cfg RetryConfig) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultRetryConfig.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultRetryConfig.MaxInterval
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = DefaultRetryConfig.MaxElapsedTime
	}

	return &Retrier{cfg: cfg}
}

// Retry runs operation until it succeeds, fails permanently or the attempt
// budget is spent. The last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = r.cfg.MaxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		attempt++

		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) || attempt >= r.cfg.MaxAttempts {
			return backoff.Permanent(err)
		}

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("ledger transaction conflicted, replaying")

		return err
	}, backoff.WithContext(b, ctx))
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
			return true
		}
		return false
	}

	return pgconn.SafeToRetry(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
