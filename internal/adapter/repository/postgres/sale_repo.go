package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// saleRepository implements domain.SaleRepository
type saleRepository struct {
	db *DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *DB) domain.SaleRepository {
	return &saleRepository{db: db}
}

// Upsert creates the sale or replaces the one stored for the same partner and date.
// The stored ID is kept on conflict and written back into sale.
func (r *saleRepository) Upsert(ctx context.Context, sale *domain.SaleRecord) error {
	return upsertSale(ctx, r.db, sale)
}

// List retrieves every sale, most recent first
func (r *saleRepository) List(ctx context.Context) ([]domain.SaleRecord, error) {
	query := `
		SELECT id, partner_id, sale_date, unit_price, total_weight, total_value, created_at
		FROM sales
		ORDER BY sale_date DESC, partner_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0)
	for rows.Next() {
		var s domain.SaleRecord
		var priceStr, weightStr, valueStr string
		if err := rows.Scan(&s.ID, &s.PartnerID, &s.Date, &priceStr, &weightStr, &valueStr, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}

		// Parse NUMERIC columns
		if s.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse unit_price: %w", err)
		}
		if s.TotalWeight, err = decimal.NewFromString(weightStr); err != nil {
			return nil, fmt.Errorf("failed to parse total_weight: %w", err)
		}
		if s.TotalValue, err = decimal.NewFromString(valueStr); err != nil {
			return nil, fmt.Errorf("failed to parse total_value: %w", err)
		}

		s.Date = domain.Day(s.Date)
		s.CreatedAt = s.CreatedAt.UTC()
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

// queryer is satisfied by both *DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertSale(ctx context.Context, q queryer, sale *domain.SaleRecord) error {
	query := `
		INSERT INTO sales (id, partner_id, sale_date, unit_price, total_weight, total_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (partner_id, sale_date)
		DO UPDATE SET
			unit_price = EXCLUDED.unit_price,
			total_weight = EXCLUDED.total_weight,
			total_value = EXCLUDED.total_value,
			created_at = EXCLUDED.created_at
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		sale.ID,
		sale.PartnerID,
		domain.Day(sale.Date),
		sale.UnitPrice.String(),
		sale.TotalWeight.String(),
		sale.TotalValue.String(),
		sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return &domain.StorageError{Op: "upsert sale", Err: err}
	}

	return nil
}

func deleteSale(ctx context.Context, q queryer, partnerID string, date time.Time) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM sales WHERE partner_id = $1 AND sale_date = $2`,
		partnerID, domain.Day(date),
	); err != nil {
		return &domain.StorageError{Op: "delete sale", Err: err}
	}
	return nil
}
