package reconciliation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// LedgerFilter narrows the ledger to one partner when PartnerID is set
type LedgerFilter struct {
	PartnerID string
}

// LedgerService handles ledger queries
type LedgerService struct {
	MovementRepo   domain.MovementRepository
	AllocationRepo domain.AllocationRepository
	SaleRepo       domain.SaleRepository
	Engine         *Engine
	logger         *zap.Logger
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	movementRepo domain.MovementRepository,
	allocationRepo domain.AllocationRepository,
	saleRepo domain.SaleRepository,
	engine *Engine,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		MovementRepo:   movementRepo,
		AllocationRepo: allocationRepo,
		SaleRepo:       saleRepo,
		Engine:         engine,
		logger:         logger,
	}
}

// GetLedger fetches every record and reconciles them
// Logic:
//  1. Read movements, allocations and sales; any read failure is a StorageUnavailableError
//  2. Reconcile the full data set (orphans are only visible against all movements)
//  3. Apply the partner filter on the resulting rows
func (s *LedgerService) GetLedger(ctx context.Context, filter LedgerFilter) ([]domain.ReconciliationRow, error) {
	movements, err := s.MovementRepo.List(ctx)
	if err != nil {
		return nil, &domain.StorageUnavailableError{Op: "list movements", Err: err}
	}

	allocations, err := s.AllocationRepo.List(ctx)
	if err != nil {
		return nil, &domain.StorageUnavailableError{Op: "list allocations", Err: err}
	}

	sales, err := s.SaleRepo.List(ctx)
	if err != nil {
		return nil, &domain.StorageUnavailableError{Op: "list sales", Err: err}
	}

	rows := s.Engine.Reconcile(movements, allocations, sales)

	partnerID := strings.TrimSpace(filter.PartnerID)
	if partnerID != "" {
		filtered := make([]domain.ReconciliationRow, 0, len(rows))
		for _, row := range rows {
			if row.PartnerID == partnerID {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	for _, row := range rows {
		for _, w := range row.Warnings {
			s.logger.Warn("ledger anomaly",
				zap.String("partner_id", row.PartnerID),
				zap.String("code", string(w.Code())),
				zap.String("detail", w.Message()))
		}
	}

	return rows, nil
}
