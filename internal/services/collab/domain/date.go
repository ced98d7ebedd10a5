package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format accepted on input and stored.
const DateLayout = "2006-01-02"

// Date is a calendar date without time-of-day or zone.
type Date struct {
	t time.Time
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{t: parsed}, nil
}

// ParseOptionalDate parses a YYYY-MM-DD date that may be left blank. Blank
// input yields the zero date and no error.
func ParseOptionalDate(value string) (Date, error) {
	if strings.TrimSpace(value) == "" {
		return Date{}, nil
	}
	return ParseDate(value)
}

// NewDate builds a date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// String renders the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}
