package domain

import (
	"strings"
	"time"
)

// ExitCause classifies why an animal left a partner's stock
type ExitCause string

const (
	ExitCauseSale  ExitCause = "SALE"
	ExitCauseDeath ExitCause = "DEATH"
	ExitCauseTheft ExitCause = "THEFT"
)

// ExitCauses lists every cause in canonical order (Sale, Death, Theft)
var ExitCauses = []ExitCause{ExitCauseSale, ExitCauseDeath, ExitCauseTheft}

// Valid reports whether c is one of the known causes
func (c ExitCause) Valid() bool {
	switch c {
	case ExitCauseSale, ExitCauseDeath, ExitCauseTheft:
		return true
	}
	return false
}

// Rank returns the canonical position of the cause, used for deterministic ordering
func (c ExitCause) Rank() int {
	for i, known := range ExitCauses {
		if known == c {
			return i
		}
	}
	return len(ExitCauses)
}

// ParseExitCause accepts the canonical codes and the legacy lowercase Spanish codes
// (ventas, muerte, robo) still found in older exports.
func ParseExitCause(value string) (ExitCause, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sale", "ventas":
		return ExitCauseSale, nil
	case "death", "muerte":
		return ExitCauseDeath, nil
	case "theft", "robo":
		return ExitCauseTheft, nil
	}
	return "", NewInvalidInput("cause", "unknown exit cause "+value)
}

// ExitAllocationEntry is the quantity of one outflow event attributed to a single cause
type ExitAllocationEntry struct {
	Cause    ExitCause
	Quantity int
}

// ValidAllocation is an allocation that passed validation.
// Entries holds only non-zero causes, in canonical order.
type ValidAllocation struct {
	Entries []ExitAllocationEntry
	Total   int
}

// QuantityFor returns the allocated quantity for cause, 0 if absent
func (a ValidAllocation) QuantityFor(cause ExitCause) int {
	for _, e := range a.Entries {
		if e.Cause == cause {
			return e.Quantity
		}
	}
	return 0
}

// AllocationRecord is one persisted allocation row: (partner, date, cause, quantity)
type AllocationRecord struct {
	PartnerID string
	Date      time.Time
	Cause     ExitCause
	Quantity  int
}

// ExitCauseInfo is the catalogue entry served to the presentation layer
type ExitCauseInfo struct {
	Code  ExitCause
	Label string
}
