package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarningCode identifies a non-fatal data-quality signal attached to a ledger row
type WarningCode string

const (
	WarningOrphanAllocation WarningCode = "ORPHAN_ALLOCATION"
	WarningNegativeBalance  WarningCode = "NEGATIVE_BALANCE"
	WarningAllocationDrift  WarningCode = "ALLOCATION_MISMATCH"
)

// Warning is a data-quality signal carried by a ReconciliationRow.
// Warnings never abort reconciliation.
type Warning interface {
	Code() WarningCode
	Message() string
}

// OrphanAllocationWarning flags a partner with exits or sales but no movement records
type OrphanAllocationWarning struct {
	PartnerID string
}

func (w OrphanAllocationWarning) Code() WarningCode { return WarningOrphanAllocation }

func (w OrphanAllocationWarning) Message() string {
	return fmt.Sprintf("partner %s has exits recorded but no movement records", w.PartnerID)
}

// NegativeBalanceWarning flags a partner whose exits exceed its inflow
type NegativeBalanceWarning struct {
	PartnerID string
	Balance   int
}

func (w NegativeBalanceWarning) Code() WarningCode { return WarningNegativeBalance }

func (w NegativeBalanceWarning) Message() string {
	return fmt.Sprintf("partner %s has a negative balance of %d", w.PartnerID, w.Balance)
}

// AllocationMismatchWarning flags a day whose stored exit allocation no longer sums to the
// recorded outflow, typically after the movement was re-entered
type AllocationMismatchWarning struct {
	PartnerID string
	Date      time.Time
	Outflow   int
	Allocated int
}

func (w AllocationMismatchWarning) Code() WarningCode { return WarningAllocationDrift }

func (w AllocationMismatchWarning) Message() string {
	return fmt.Sprintf("partner %s on %s has %d exits allocated for an outflow of %d",
		w.PartnerID, w.Date.Format(DateLayout), w.Allocated, w.Outflow)
}

// ReconciliationRow is the derived ledger view for a partner, one per sale
// (or one per partner without sales). Computed per query, never persisted by the engine.
type ReconciliationRow struct {
	PartnerID      string
	Date           time.Time
	SaleID         *uuid.UUID // nil when the partner has no sale
	TotalInflow    int
	ExitsByCause   map[ExitCause]int // always holds every cause
	CurrentBalance int               // may be negative, see Warnings
	SaleUnitPrice  decimal.Decimal
	SaleWeight     decimal.Decimal
	SaleValue      decimal.Decimal
	Split60        decimal.Decimal
	Split40        decimal.Decimal
	Warnings       []Warning
}

// TotalExits sums the exits across all causes
func (r ReconciliationRow) TotalExits() int {
	total := 0
	for _, q := range r.ExitsByCause {
		total += q
	}
	return total
}

// HasWarning reports whether the row carries a warning with the given code
func (r ReconciliationRow) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code() == code {
			return true
		}
	}
	return false
}

// LedgerSnapshot is an archived copy of the ledger at a point in time
type LedgerSnapshot struct {
	ID           uuid.UUID
	TakenAt      time.Time
	Rows         []ReconciliationRow
	TotalValue   decimal.Decimal
	TotalSplit60 decimal.Decimal
	TotalSplit40 decimal.Decimal
	WarningCount int
}
