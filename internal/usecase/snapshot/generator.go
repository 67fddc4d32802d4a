package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/reconciliation"
)

// LedgerReader produces the current ledger
type LedgerReader interface {
	GetLedger(ctx context.Context, filter reconciliation.LedgerFilter) ([]domain.ReconciliationRow, error)
}

// Generator archives point-in-time copies of the ledger
type Generator struct {
	Ledger LedgerReader
	Repo   domain.SnapshotRepository
	logger *zap.Logger
}

// NewGenerator creates a new Generator instance
func NewGenerator(ledger LedgerReader, repo domain.SnapshotRepository, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{Ledger: ledger, Repo: repo, logger: logger}
}

// Generate reconciles the full ledger and archives it.
//
// Logic:
//   - Rows are taken as-is, warnings included
//   - Totals sum SaleValue/Split60/Split40 over every row
//   - WarningCount counts warnings, not rows with warnings
func (g *Generator) Generate(ctx context.Context, at time.Time) (*domain.LedgerSnapshot, error) {
	rows, err := g.Ledger.GetLedger(ctx, reconciliation.LedgerFilter{})
	if err != nil {
		return nil, err
	}

	value, split60, split40 := reconciliation.Totals(rows)

	warnings := 0
	for _, row := range rows {
		warnings += len(row.Warnings)
	}

	snap := &domain.LedgerSnapshot{
		ID:           uuid.New(),
		TakenAt:      at.UTC(),
		Rows:         rows,
		TotalValue:   value,
		TotalSplit60: split60,
		TotalSplit40: split40,
		WarningCount: warnings,
	}

	if err := g.Repo.Save(ctx, snap); err != nil {
		return nil, err
	}

	g.logger.Info("ledger snapshot archived",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("rows", len(rows)),
		zap.Int("warnings", warnings),
		zap.String("total_value", value.String()))

	return snap, nil
}
