package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRecord represents the sale closing out the Sale share of a partner's outflow on a day.
// At most one per (PartnerID, Date).
type SaleRecord struct {
	ID          uuid.UUID
	PartnerID   string
	Date        time.Time
	UnitPrice   decimal.Decimal // price per kilo
	TotalWeight decimal.Decimal // kilos sold
	TotalValue  decimal.Decimal // UnitPrice * TotalWeight, unrounded
	CreatedAt   time.Time
}

// Validate ensures the sale adheres to domain rules.
// TotalValue must be the exact product; rounding happens only in the ledger.
func (s *SaleRecord) Validate() error {
	if strings.TrimSpace(s.PartnerID) == "" {
		return NewInvalidInput("partner_id", "must not be empty")
	}
	if s.Date.IsZero() {
		return NewInvalidInput("date", "must be set")
	}
	if s.UnitPrice.IsNegative() {
		return NewInvalidInput("unit_price", "must be non-negative")
	}
	if s.TotalWeight.IsNegative() {
		return NewInvalidInput("total_weight", "must be non-negative")
	}
	if !s.TotalValue.Equal(s.UnitPrice.Mul(s.TotalWeight)) {
		return NewInvalidInput("total_value", "must equal unit_price * total_weight")
	}
	return nil
}
