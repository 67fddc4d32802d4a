package postgres

import (
	"context"
	"time"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// exitStore implements domain.ExitStore
type exitStore struct {
	db *DB
}

// NewExitStore creates a store writing allocations and sales in one transaction
func NewExitStore(db *DB) domain.ExitStore {
	return &exitStore{db: db}
}

// SaveExits replaces the allocation of a partner/date and settles its sale in a single transaction.
// A nil sale removes whatever sale was stored for that day.
func (s *exitStore) SaveExits(ctx context.Context, partnerID string, date time.Time, entries []domain.ExitAllocationEntry, sale *domain.SaleRecord) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "save exits", Err: err}
	}
	defer dbTx.Rollback()

	day := domain.Day(date)

	if sale != nil {
		if err := upsertSale(ctx, dbTx, sale); err != nil {
			return err
		}
	} else if err := deleteSale(ctx, dbTx, partnerID, day); err != nil {
		return err
	}

	if _, err := dbTx.ExecContext(ctx,
		`DELETE FROM exit_allocations WHERE partner_id = $1 AND exit_date = $2`,
		partnerID, day,
	); err != nil {
		return &domain.StorageError{Op: "clear allocation", Err: err}
	}

	insertQuery := `
		INSERT INTO exit_allocations (partner_id, exit_date, cause, quantity)
		VALUES ($1, $2, $3, $4)
	`
	for _, entry := range entries {
		if entry.Quantity == 0 {
			continue
		}
		if _, err := dbTx.ExecContext(ctx, insertQuery, partnerID, day, string(entry.Cause), entry.Quantity); err != nil {
			return &domain.StorageError{Op: "insert allocation entry", Err: err}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return &domain.StorageError{Op: "commit exits", Err: err}
	}

	return nil
}
