package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MovementRecord represents the inflow/outflow headcount entered for a partner on a given day.
// One record per partner per date; re-entry replaces the previous values.
type MovementRecord struct {
	ID         uuid.UUID
	PartnerID  string
	Date       time.Time // calendar day, UTC midnight
	InflowQty  int
	OutflowQty int
}

// Validate ensures the movement adheres to domain rules
func (m *MovementRecord) Validate() error {
	if strings.TrimSpace(m.PartnerID) == "" {
		return NewInvalidInput("partner_id", "must not be empty")
	}
	if m.Date.IsZero() {
		return NewInvalidInput("date", "must be set")
	}
	if m.InflowQty < 0 {
		return NewInvalidInput("inflow_qty", "must be non-negative")
	}
	if m.OutflowQty < 0 {
		return NewInvalidInput("outflow_qty", "must be non-negative")
	}
	return nil
}

// Day truncates t to the UTC calendar day it falls on.
// All records are keyed by day, so every date entering the domain goes through here.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format for record dates
const DateLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into a calendar day
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, NewInvalidInput("date", "expected YYYY-MM-DD")
	}
	return Day(t), nil
}
