package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date accepts either a calendar date ("2025-01-31") or an RFC 3339
// timestamp. An empty string or null leaves it unset.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}

	return fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(d.Format(time.DateOnly))
}

// Ptr returns nil for an unset date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}

	t := d.Time
	return &t
}

// Value returns the date, or the zero time.
func (d *Date) Value() time.Time {
	if d == nil {
		return time.Time{}
	}

	return d.Time
}
