package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated   = "transaction.created"
	EventTypeTransactionUpdated   = "transaction.updated"
	EventTypeTransactionDeleted   = "transaction.deleted"
	EventTypeDocumentCreated      = "document.created"
	EventTypeDocumentStatusChange = "document.status_changed"
	EventTypeDocumentPayment      = "document.payment_recorded"
	EventTypeDocumentDeleted      = "document.deleted"
	EventTypeQuoteAccepted        = "quote.accepted"
	EventTypeQuoteConverted       = "quote.converted"
	EventTypeScheduledPayment     = "scheduled.payment_recorded"
	EventTypeScheduledStatus      = "scheduled.status_changed"
	EventTypeBalanceOverridden    = "balance.overridden"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeDocument    = "document"
	AggregateTypeScheduled   = "scheduled_operation"
	AggregateTypeBalance     = "balance"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// QuoteAcceptedEvent is emitted when a quote becomes ACCEPTED. Consumers may
// offer the user to draft the matching invoice.
type QuoteAcceptedEvent struct {
	QuoteID       string `json:"quote_id"`
	Number        string `json:"number"`
	Amount        string `json:"amount"`
	RecipientName string `json:"recipient_name"`
}

// DocumentPaymentEvent payload
type DocumentPaymentEvent struct {
	DocumentID string `json:"document_id"`
	Amount     string `json:"amount"`
	Method     string `json:"method"`
	AmountPaid string `json:"amount_paid"`
	Remaining  string `json:"remaining"`
}
