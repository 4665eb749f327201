package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is a trail entry for every sensitive ledger mutation.
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string // What action (document.status, balance.override, ...)
	ResourceType string
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a free-form JSON object
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionDocumentStatus  AuditAction = "document.status"
	AuditActionDocumentPayment AuditAction = "document.payment"
	AuditActionDocumentDelete  AuditAction = "document.delete"
	AuditActionQuoteConvert    AuditAction = "quote.convert"

	AuditActionTransactionUpdate AuditAction = "transaction.update"
	AuditActionTransactionDelete AuditAction = "transaction.delete"

	AuditActionScheduledPayment AuditAction = "scheduled.payment"
	AuditActionScheduledStatus  AuditAction = "scheduled.status"

	AuditActionBalanceOverride AuditAction = "balance.override"
	AuditActionBalanceLock     AuditAction = "balance.lock"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a value to a JSON object for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"value": string(data)}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
