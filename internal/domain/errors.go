package domain

import "errors"

// Error categories. Callers match on these with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
	ErrRenderFailure     = errors.New("document rendering failed")
	ErrPersistence       = errors.New("persistence failure")
)

var (
	// Document errors
	ErrDocumentNotFound  = wrap(ErrNotFound, "document not found")
	ErrDuplicateNumber   = wrap(ErrValidation, "document number already exists")
	ErrUnknownDocType    = wrap(ErrValidation, "unknown document type")
	ErrOverpayment       = wrap(ErrValidation, "payment exceeds document amount")
	ErrNegativePayment   = wrap(ErrValidation, "cumulative paid amount cannot decrease")
	ErrAmountBelowPaid   = wrap(ErrValidation, "amount cannot be lower than the amount already paid")
	ErrQuoteOnly         = wrap(ErrValidation, "operation only applies to quotes")
	ErrMissingPaymentRef = wrap(ErrValidation, "payment method and date are required")

	// Ledger errors
	ErrTransactionNotFound = wrap(ErrNotFound, "transaction not found")
	ErrCategoryNotFound    = wrap(ErrNotFound, "category not found")
	ErrCategoryMismatch    = wrap(ErrValidation, "category does not accept this transaction type")
	ErrInvalidAmount       = wrap(ErrValidation, "amount must be positive")
	ErrInvalidType         = wrap(ErrValidation, "type must be CREDIT or DEBIT")
	ErrBalanceLocked       = errors.New("balance is locked")

	// Scheduled operation errors
	ErrOperationNotFound = wrap(ErrNotFound, "scheduled operation not found")
	ErrInvalidFrequency  = wrap(ErrValidation, "unknown frequency")
	ErrOperationRejected = wrap(ErrValidation, "operation was rejected")
)

type categorized struct {
	parent error
	msg    string
}

func wrap(parent error, msg string) error {
	return &categorized{parent: parent, msg: msg}
}

func (e *categorized) Error() string { return e.msg }

func (e *categorized) Unwrap() error { return e.parent }
