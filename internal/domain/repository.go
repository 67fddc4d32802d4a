package domain

import (
	"context"
	"time"
)

// MovementRepository defines the interface for movement persistence operations
type MovementRepository interface {
	// Upsert creates the movement or replaces the one stored for the same partner and date
	Upsert(ctx context.Context, movement *MovementRecord) error

	// GetByPartnerDate retrieves the movement for a partner on a day.
	// Returns an error wrapping ErrNotFound if none exists.
	GetByPartnerDate(ctx context.Context, partnerID string, date time.Time) (*MovementRecord, error)

	// List retrieves every movement record
	List(ctx context.Context) ([]MovementRecord, error)
}

// AllocationRepository defines the interface for reading exit allocations.
// Allocations are written through ExitStore together with the sale they settle.
type AllocationRepository interface {
	// ListByPartnerDate retrieves the stored entries of one outflow event
	ListByPartnerDate(ctx context.Context, partnerID string, date time.Time) ([]ExitAllocationEntry, error)

	// List retrieves every allocation row
	List(ctx context.Context) ([]AllocationRecord, error)
}

// SaleRepository defines the interface for sale persistence operations
type SaleRepository interface {
	// Upsert creates the sale or replaces the one stored for the same partner and date
	Upsert(ctx context.Context, sale *SaleRecord) error

	// List retrieves every sale, most recent first
	List(ctx context.Context) ([]SaleRecord, error)
}

// ExitStore writes a day's exit allocation and its sale as one unit
type ExitStore interface {
	// SaveExits replaces the allocation of a partner/date with the given entries and, in the
	// same transaction, upserts sale or deletes the sale stored for that day when sale is nil.
	// Nothing is written when it fails.
	SaveExits(ctx context.Context, partnerID string, date time.Time, entries []ExitAllocationEntry, sale *SaleRecord) error
}

// ExitCauseRepository defines the interface for the exit cause catalogue
type ExitCauseRepository interface {
	// Get retrieves a catalogue entry by code. Returns an error wrapping ErrNotFound if absent.
	Get(ctx context.Context, code ExitCause) (*ExitCauseInfo, error)

	// Create inserts a catalogue entry
	Create(ctx context.Context, info *ExitCauseInfo) error

	// List retrieves the whole catalogue in canonical order
	List(ctx context.Context) ([]ExitCauseInfo, error)
}

// SnapshotRepository defines the interface for archiving ledger snapshots
type SnapshotRepository interface {
	// Save archives a snapshot
	Save(ctx context.Context, snapshot *LedgerSnapshot) error
}
