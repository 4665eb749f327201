package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 4000
	MaxNumberLength      = 64
	MaxAmount            = "100000000" // 100M EUR
	MaxPageSize          = 1000
	DefaultPageSize      = 50
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateRequired checks that a text field is present and bounded.
func ValidateRequired(field, value string, maxLen int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}

	if maxLen > 0 && len(value) > maxLen {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrValidation, field, maxLen)
	}

	return nil
}

// ValidateAmount validates a strictly positive money amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(decimal.RequireFromString(MaxAmount)) {
		return fmt.Errorf("%w: maximum amount is %s", ErrValidation, MaxAmount)
	}

	return nil
}

// ValidateNonNegative validates an amount that may be zero.
func ValidateNonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidation, field)
	}

	if amount.GreaterThan(decimal.RequireFromString(MaxAmount)) {
		return fmt.Errorf("%w: maximum %s is %s", ErrValidation, field, MaxAmount)
	}

	return nil
}

// ValidateEmail validates an optional email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	return nil
}

// ValidatePagination clamps pagination parameters to sane bounds.
func ValidatePagination(page, limit int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if page < 1 {
		page = 1
	}

	return page, limit
}
