package allocator

import (
	"github.com/simaogato/herdledger-backend/internal/domain"
)

// Draft is the in-progress allocation of one outflow event, as edited by a user.
// Death and Theft behave as on/off toggles (0 or 1); the Sale quantity is numeric and
// only set once a sale has been entered. A Draft may be incomplete; Validate is the gate.
type Draft struct {
	requiredTotal int
	quantities    map[domain.ExitCause]int
}

// NewDraft starts an empty allocation with one zero entry per cause
func NewDraft(requiredTotal int) *Draft {
	d := &Draft{
		requiredTotal: requiredTotal,
		quantities:    make(map[domain.ExitCause]int, len(domain.ExitCauses)),
	}
	for _, cause := range domain.ExitCauses {
		d.quantities[cause] = 0
	}
	return d
}

// DraftFromEntries reopens a stored allocation for editing.
// Unknown causes are ignored; missing causes start at zero.
func DraftFromEntries(requiredTotal int, entries []domain.ExitAllocationEntry) *Draft {
	d := NewDraft(requiredTotal)
	for _, entry := range entries {
		if entry.Cause.Valid() {
			d.quantities[entry.Cause] = entry.Quantity
		}
	}
	return d
}

// Toggle flips a non-sale cause between unused (0) and used (1)
func (d *Draft) Toggle(cause domain.ExitCause) error {
	if cause == domain.ExitCauseSale {
		return domain.ErrSaleNotToggleable
	}
	if !cause.Valid() {
		return domain.NewInvalidInput("cause", "unknown exit cause "+string(cause))
	}

	if d.quantities[cause] > 0 {
		d.quantities[cause] = 0
	} else {
		d.quantities[cause] = 1
	}
	return nil
}

// SetSaleQuantity records the head count covered by the completed sale
func (d *Draft) SetSaleQuantity(quantity int) error {
	if quantity < 0 {
		return domain.NewInvalidInput("sale_quantity", "must be non-negative")
	}
	d.quantities[domain.ExitCauseSale] = quantity
	return nil
}

// Quantity returns the current quantity of a cause
func (d *Draft) Quantity(cause domain.ExitCause) int {
	return d.quantities[cause]
}

// RequiredTotal returns the outflow the draft has to cover
func (d *Draft) RequiredTotal() int {
	return d.requiredTotal
}

// Assigned returns the sum of all quantities
func (d *Draft) Assigned() int {
	total := 0
	for _, q := range d.quantities {
		total += q
	}
	return total
}

// Remaining returns what is still unassigned (negative when over-assigned)
func (d *Draft) Remaining() int {
	return d.requiredTotal - d.Assigned()
}

// Complete reports whether the draft covers the outflow exactly
func (d *Draft) Complete() bool {
	return d.Remaining() == 0
}

// Entries returns one entry per cause in canonical order, zero quantities included
func (d *Draft) Entries() []domain.ExitAllocationEntry {
	entries := make([]domain.ExitAllocationEntry, 0, len(domain.ExitCauses))
	for _, cause := range domain.ExitCauses {
		entries = append(entries, domain.ExitAllocationEntry{Cause: cause, Quantity: d.quantities[cause]})
	}
	return entries
}

// Validate runs the draft through ValidateAllocation
func (d *Draft) Validate() (domain.ValidAllocation, error) {
	return ValidateAllocation(d.Entries(), d.requiredTotal)
}
