package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// exitCauseRepository implements domain.ExitCauseRepository
type exitCauseRepository struct {
	db *DB
}

// NewExitCauseRepository creates a new exit cause repository
func NewExitCauseRepository(db *DB) domain.ExitCauseRepository {
	return &exitCauseRepository{db: db}
}

// Get retrieves a catalogue entry by code
func (r *exitCauseRepository) Get(ctx context.Context, code domain.ExitCause) (*domain.ExitCauseInfo, error) {
	var info domain.ExitCauseInfo
	var codeStr string

	err := r.db.QueryRowContext(ctx,
		`SELECT code, label FROM exit_causes WHERE code = $1`,
		string(code),
	).Scan(&codeStr, &info.Label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exit cause %s: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get exit cause: %w", err)
	}
	info.Code = domain.ExitCause(codeStr)

	return &info, nil
}

// Create inserts a catalogue entry; rank follows the canonical cause order
func (r *exitCauseRepository) Create(ctx context.Context, info *domain.ExitCauseInfo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exit_causes (code, label, rank) VALUES ($1, $2, $3)`,
		string(info.Code),
		info.Label,
		info.Code.Rank(),
	)
	if err != nil {
		return &domain.StorageError{Op: "create exit cause", Err: err}
	}

	return nil
}

// List retrieves the whole catalogue in canonical order
func (r *exitCauseRepository) List(ctx context.Context) ([]domain.ExitCauseInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, label FROM exit_causes ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("failed to list exit causes: %w", err)
	}
	defer rows.Close()

	causes := make([]domain.ExitCauseInfo, 0, len(domain.ExitCauses))
	for rows.Next() {
		var code string
		var info domain.ExitCauseInfo
		if err := rows.Scan(&code, &info.Label); err != nil {
			return nil, fmt.Errorf("failed to scan exit cause: %w", err)
		}
		info.Code = domain.ExitCause(code)
		causes = append(causes, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exit causes: %w", err)
	}

	return causes, nil
}
