package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateRequired(t *testing.T) {
	t.Parallel()

	t.Run("present value", func(t *testing.T) {
		if err := ValidateRequired("title", "Restauration Saviem", MaxTitleLength); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("blank value rejected", func(t *testing.T) {
		err := ValidateRequired("title", "   ", MaxTitleLength)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		err := ValidateRequired("number", strings.Repeat("9", MaxNumberLength+1), MaxNumberLength)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateAmount(decimal.RequireFromString("12.50")); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromInt(-5)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation category for negative, got %v", err)
	}

	huge := decimal.RequireFromString(MaxAmount).Add(decimal.NewFromInt(1))
	if err := ValidateAmount(huge); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for huge amount, got %v", err)
	}
}

func TestValidateNonNegative(t *testing.T) {
	t.Parallel()

	if err := ValidateNonNegative("amount", decimal.Zero); err != nil {
		t.Fatalf("zero should be accepted, got %v", err)
	}

	if err := ValidateNonNegative("amount", decimal.NewFromInt(-1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail(""); err != nil {
		t.Fatalf("empty email is optional, got %v", err)
	}

	if err := ValidateEmail("Tresorier@RetroBus-Essonne.fr"); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}

	if err := ValidateEmail("invalid-email"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		page, limit int
		wantPage    int
		wantLimit   int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"clamped limit", 3, MaxPageSize + 10, 3, MaxPageSize},
		{"negative page", -2, 10, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := ValidatePagination(tt.page, tt.limit)
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Fatalf("expected (%d,%d), got (%d,%d)", tt.wantPage, tt.wantLimit, page, limit)
			}
		})
	}
}
