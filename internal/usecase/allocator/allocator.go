package allocator

import (
	"sort"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// ValidateAllocation checks a proposed split of an outflow event across exit causes
// Returns the accepted allocation with zero-quantity causes dropped
// Logic:
//  1. Reject a negative requiredTotal or an unknown cause (caller bugs)
//  2. Reject any negative quantity
//  3. Reject a cause listed more than once
//  4. Require the quantities to sum to requiredTotal exactly (under and over alike)
//  5. Drop zero entries and sort the rest in canonical cause order
//
// The validator does not care whether a quantity came from a toggle or from the sale workflow.
func ValidateAllocation(entries []domain.ExitAllocationEntry, requiredTotal int) (domain.ValidAllocation, error) {
	if requiredTotal < 0 {
		return domain.ValidAllocation{}, domain.NewInvalidInput("required_total", "must be non-negative")
	}

	seen := make(map[domain.ExitCause]bool, len(entries))
	assigned := 0

	for _, entry := range entries {
		if !entry.Cause.Valid() {
			return domain.ValidAllocation{}, domain.NewInvalidInput("cause", "unknown exit cause "+string(entry.Cause))
		}

		if entry.Quantity < 0 {
			return domain.ValidAllocation{}, &domain.AllocationError{
				Kind:     domain.AllocationNegativeQuantity,
				Cause:    entry.Cause,
				Required: requiredTotal,
			}
		}

		if seen[entry.Cause] {
			return domain.ValidAllocation{}, &domain.AllocationError{
				Kind:     domain.AllocationDuplicateCause,
				Cause:    entry.Cause,
				Required: requiredTotal,
			}
		}
		seen[entry.Cause] = true
		assigned += entry.Quantity
	}

	if assigned != requiredTotal {
		return domain.ValidAllocation{}, &domain.AllocationError{
			Kind:      domain.AllocationIncomplete,
			Assigned:  assigned,
			Required:  requiredTotal,
			Remaining: requiredTotal - assigned,
		}
	}

	// Copy the non-zero entries to avoid mutating the caller's slice
	used := make([]domain.ExitAllocationEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Quantity > 0 {
			used = append(used, entry)
		}
	}

	sort.Slice(used, func(i, j int) bool {
		return used[i].Cause.Rank() < used[j].Cause.Rank()
	})

	return domain.ValidAllocation{Entries: used, Total: assigned}, nil
}
