package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar date format used everywhere: persisted records,
// filter bounds, and the remote table all carry dates as YYYY-MM-DD strings.
const DateLayout = "2006-01-02"

type (
	// Project is a tracked sales engagement: one billing line with revenue,
	// expense, and invoice/payment status.
	Project struct {
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Client     string `json:"client"`
		Date       string `json:"date"`
		Sales      Yen    `json:"sales"`
		Expenses   Yen    `json:"expenses"`
		Note       string `json:"note,omitempty"`
		IsInvoiced bool   `json:"isInvoiced"`
		IsPaid     bool   `json:"isPaid"`
	}
)

var (
	ErrEmptyName   = errors.New("empty project name")
	ErrEmptyClient = errors.New("empty client")
	ErrInvalidDate = errors.New("invalid date")
	ErrNotFound    = errors.New("project not found")
)

// Profit is sales minus expenses for a single project.
func (p Project) Profit() Yen {
	return p.Sales - p.Expenses
}

func (p Project) Validate() error {
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return errors.New("project name too long (max 200 characters)")
	}
	if len(strings.TrimSpace(p.Client)) == 0 {
		return ErrEmptyClient
	}
	if _, err := ParseDate(p.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date. Callers that filter or group
// treat a parse failure as "no match" rather than an error.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a time as a YYYY-MM-DD calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// YearMonth returns the YYYY-MM grouping key for a date string, or "" when the
// date does not parse. Zero-padded months sort chronologically.
func YearMonth(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}

// FirstOfMonth returns the first day of the given year and month as a date
// string.
func FirstOfMonth(year int, month time.Month) string {
	return FormatDate(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}
