package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a store transaction
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// RenderCacheTTL is how long a rendered PDF stays cached
	RenderCacheTTL = 1 * time.Hour

	// IdempotencyPending marks a key whose request is still running
	IdempotencyPending = "processing"

	// SystemUserID is recorded in audit logs when no user is authenticated
	SystemUserID = "system"
)
