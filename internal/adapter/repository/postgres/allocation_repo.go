package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// allocationRepository implements domain.AllocationRepository
type allocationRepository struct {
	db *DB
}

// NewAllocationRepository creates a new allocation repository
func NewAllocationRepository(db *DB) domain.AllocationRepository {
	return &allocationRepository{db: db}
}

// ListByPartnerDate retrieves the stored entries of one outflow event
func (r *allocationRepository) ListByPartnerDate(ctx context.Context, partnerID string, date time.Time) ([]domain.ExitAllocationEntry, error) {
	query := `
		SELECT cause, quantity
		FROM exit_allocations
		WHERE partner_id = $1 AND exit_date = $2
	`

	rows, err := r.db.QueryContext(ctx, query, partnerID, domain.Day(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list allocation entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ExitAllocationEntry, 0, len(domain.ExitCauses))
	for rows.Next() {
		var cause string
		var entry domain.ExitAllocationEntry
		if err := rows.Scan(&cause, &entry.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan allocation entry: %w", err)
		}
		entry.Cause = domain.ExitCause(cause)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation entries: %w", err)
	}

	return entries, nil
}

// List retrieves every allocation row
func (r *allocationRepository) List(ctx context.Context) ([]domain.AllocationRecord, error) {
	query := `
		SELECT partner_id, exit_date, cause, quantity
		FROM exit_allocations
		ORDER BY exit_date, partner_id, cause
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AllocationRecord, 0)
	for rows.Next() {
		var cause string
		var rec domain.AllocationRecord
		if err := rows.Scan(&rec.PartnerID, &rec.Date, &cause, &rec.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		rec.Cause = domain.ExitCause(cause)
		rec.Date = domain.Day(rec.Date)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}

	return records, nil
}
