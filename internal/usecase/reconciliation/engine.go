package reconciliation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/herdledger-backend/internal/domain"
)

// majorShare is the settlement percentage of the first party; the second party gets the remainder
var majorShare = decimal.RequireFromString("0.6")

// SplitRevenue divides a sale value into its 60% and 40% shares.
// The 60% share is rounded to places; the 40% share is derived by subtraction so both
// halves always add back to value exactly.
func SplitRevenue(value decimal.Decimal, places int32) (split60, split40 decimal.Decimal) {
	split60 = value.Mul(majorShare).Round(places)
	split40 = value.Sub(split60)
	return split60, split40
}

// Engine builds the per-partner ledger out of raw movement, allocation and sale records
type Engine struct {
	CurrencyPlaces int32
}

// NewEngine creates an Engine rounding revenue splits to the given decimal places
func NewEngine(currencyPlaces int32) *Engine {
	return &Engine{CurrencyPlaces: currencyPlaces}
}

// partnerTotals accumulates everything known about one partner
type partnerTotals struct {
	hasMovements bool
	totalInflow  int
	exits        map[domain.ExitCause]int
	sales        []domain.SaleRecord
	lastActivity time.Time
	days         map[string]*dayTotals
}

// dayTotals compares the outflow of one day with what was allocated to it
type dayTotals struct {
	date      time.Time
	outflow   int
	allocated int
}

func (p *partnerTotals) day(date time.Time) *dayTotals {
	key := date.Format(domain.DateLayout)
	d, ok := p.days[key]
	if !ok {
		d = &dayTotals{date: date}
		p.days[key] = d
	}
	return d
}

func (p *partnerTotals) touch(date time.Time) {
	if date.After(p.lastActivity) {
		p.lastActivity = date
	}
}

// Reconcile aggregates the records into ledger rows
// Logic:
//  1. Sum inflow per partner over all its movement records
//  2. Sum allocated exits per partner and cause (missing causes stay 0)
//  3. Balance = inflow - exits, never clamped; negative balances get a warning
//  4. One row per sale with the 60/40 split; partners without sales get one row
//     dated at their latest activity
//  5. Partners with exits or sales but no movements are kept, flagged as orphans
//  6. Days whose allocated exits differ from the recorded outflow are flagged
//  7. Rows sorted by date descending, then partner ascending
//
// The result does not depend on the order of the input slices.
func (e *Engine) Reconcile(
	movements []domain.MovementRecord,
	allocations []domain.AllocationRecord,
	sales []domain.SaleRecord,
) []domain.ReconciliationRow {
	partners := make(map[string]*partnerTotals)
	get := func(partnerID string) *partnerTotals {
		p, ok := partners[partnerID]
		if !ok {
			p = &partnerTotals{
				exits: make(map[domain.ExitCause]int, len(domain.ExitCauses)),
				days:  make(map[string]*dayTotals),
			}
			partners[partnerID] = p
		}
		return p
	}

	for _, m := range movements {
		p := get(m.PartnerID)
		p.hasMovements = true
		p.totalInflow += m.InflowQty
		p.day(m.Date).outflow += m.OutflowQty
		p.touch(m.Date)
	}

	for _, a := range allocations {
		p := get(a.PartnerID)
		p.exits[a.Cause] += a.Quantity
		p.day(a.Date).allocated += a.Quantity
		p.touch(a.Date)
	}

	for _, s := range sales {
		p := get(s.PartnerID)
		p.sales = append(p.sales, s)
		p.touch(s.Date)
	}

	rows := make([]domain.ReconciliationRow, 0, len(partners))
	for partnerID, p := range partners {
		if len(p.sales) == 0 {
			row := e.baseRow(partnerID, p)
			row.Date = p.lastActivity
			rows = append(rows, row)
			continue
		}

		for _, s := range p.sales {
			row := e.baseRow(partnerID, p)
			saleID := s.ID
			row.Date = s.Date
			row.SaleID = &saleID
			row.SaleUnitPrice = s.UnitPrice
			row.SaleWeight = s.TotalWeight
			row.SaleValue = s.TotalValue
			row.Split60, row.Split40 = SplitRevenue(s.TotalValue, e.CurrencyPlaces)
			rows = append(rows, row)
		}
	}

	sortRows(rows)
	return rows
}

// baseRow builds the partner-level part of a row. Each call returns fresh maps and slices
// so rows never alias each other.
func (e *Engine) baseRow(partnerID string, p *partnerTotals) domain.ReconciliationRow {
	exits := make(map[domain.ExitCause]int, len(domain.ExitCauses))
	for _, cause := range domain.ExitCauses {
		exits[cause] = 0
	}
	totalExits := 0
	for cause, q := range p.exits {
		exits[cause] = q
		totalExits += q
	}

	row := domain.ReconciliationRow{
		PartnerID:      partnerID,
		TotalInflow:    p.totalInflow,
		ExitsByCause:   exits,
		CurrentBalance: p.totalInflow - totalExits,
		SaleUnitPrice:  decimal.Zero,
		SaleWeight:     decimal.Zero,
		SaleValue:      decimal.Zero,
		Split60:        decimal.Zero,
		Split40:        decimal.Zero,
	}

	if !p.hasMovements {
		row.Warnings = append(row.Warnings, domain.OrphanAllocationWarning{PartnerID: partnerID})
	}
	if row.CurrentBalance < 0 {
		row.Warnings = append(row.Warnings, domain.NegativeBalanceWarning{PartnerID: partnerID, Balance: row.CurrentBalance})
	}
	if p.hasMovements {
		row.Warnings = append(row.Warnings, mismatchWarnings(partnerID, p)...)
	}

	return row
}

// mismatchWarnings lists, oldest first, the days with an allocation that does not sum to the outflow.
// Days with nothing allocated yet are pending, not mismatched.
func mismatchWarnings(partnerID string, p *partnerTotals) []domain.Warning {
	days := make([]*dayTotals, 0, len(p.days))
	for _, d := range p.days {
		if d.allocated > 0 && d.allocated != d.outflow {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	warnings := make([]domain.Warning, 0, len(days))
	for _, d := range days {
		warnings = append(warnings, domain.AllocationMismatchWarning{
			PartnerID: partnerID,
			Date:      d.date,
			Outflow:   d.outflow,
			Allocated: d.allocated,
		})
	}
	return warnings
}

func sortRows(rows []domain.ReconciliationRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.PartnerID != b.PartnerID {
			return a.PartnerID < b.PartnerID
		}
		return saleKey(a) < saleKey(b)
	})
}

func saleKey(r domain.ReconciliationRow) string {
	if r.SaleID == nil {
		return ""
	}
	return r.SaleID.String()
}

// Totals sums sale value and both shares over the rows
func Totals(rows []domain.ReconciliationRow) (value, split60, split40 decimal.Decimal) {
	value, split60, split40 = decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		value = value.Add(r.SaleValue)
		split60 = split60.Add(r.Split60)
		split40 = split40.Add(r.Split40)
	}
	return value, split60, split40
}
