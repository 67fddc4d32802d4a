package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// movementRepository implements domain.MovementRepository
type movementRepository struct {
	db *DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *DB) domain.MovementRepository {
	return &movementRepository{db: db}
}

// Upsert creates the movement or overwrites the quantities stored for the same partner and date.
// The stored ID is kept on conflict and written back into movement.
func (r *movementRepository) Upsert(ctx context.Context, movement *domain.MovementRecord) error {
	query := `
		INSERT INTO movements (id, partner_id, movement_date, inflow_qty, outflow_qty)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partner_id, movement_date)
		DO UPDATE SET inflow_qty = EXCLUDED.inflow_qty, outflow_qty = EXCLUDED.outflow_qty
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		movement.ID,
		movement.PartnerID,
		movement.Date,
		movement.InflowQty,
		movement.OutflowQty,
	).Scan(&movement.ID)
	if err != nil {
		return &domain.StorageError{Op: "upsert movement", Err: err}
	}

	return nil
}

// GetByPartnerDate retrieves the movement of a partner on a day
func (r *movementRepository) GetByPartnerDate(ctx context.Context, partnerID string, date time.Time) (*domain.MovementRecord, error) {
	query := `
		SELECT id, partner_id, movement_date, inflow_qty, outflow_qty
		FROM movements
		WHERE partner_id = $1 AND movement_date = $2
	`

	var m domain.MovementRecord
	err := r.db.QueryRowContext(ctx, query, partnerID, domain.Day(date)).Scan(
		&m.ID,
		&m.PartnerID,
		&m.Date,
		&m.InflowQty,
		&m.OutflowQty,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movement %s on %s: %w", partnerID, date.Format(domain.DateLayout), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}
	m.Date = domain.Day(m.Date)

	return &m, nil
}

// List retrieves every movement ordered by date then partner
func (r *movementRepository) List(ctx context.Context) ([]domain.MovementRecord, error) {
	query := `
		SELECT id, partner_id, movement_date, inflow_qty, outflow_qty
		FROM movements
		ORDER BY movement_date, partner_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.MovementRecord, 0)
	for rows.Next() {
		var m domain.MovementRecord
		if err := rows.Scan(&m.ID, &m.PartnerID, &m.Date, &m.InflowQty, &m.OutflowQty); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Date = domain.Day(m.Date)
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, nil
}
