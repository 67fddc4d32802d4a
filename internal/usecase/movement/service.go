package movement

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// RecordMovementInput represents the input for recording a day's movement
type RecordMovementInput struct {
	PartnerID  string
	Date       time.Time
	InflowQty  int
	OutflowQty int
}

// MovementService handles movement recording operations
type MovementService struct {
	MovementRepo   domain.MovementRepository
	AllocationRepo domain.AllocationRepository
	logger         *zap.Logger
}

// NewMovementService creates a new MovementService instance
func NewMovementService(movementRepo domain.MovementRepository, allocationRepo domain.AllocationRepository, logger *zap.Logger) *MovementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovementService{
		MovementRepo:   movementRepo,
		AllocationRepo: allocationRepo,
		logger:         logger,
	}
}

// RecordMovement stores the inflow/outflow of a partner for a day.
// Entering the same partner and day again replaces the earlier record; an exit allocation
// already stored for that day is kept and reported when it no longer sums to the outflow.
func (s *MovementService) RecordMovement(ctx context.Context, input RecordMovementInput) (*domain.MovementRecord, error) {
	record := &domain.MovementRecord{
		ID:         uuid.New(),
		PartnerID:  strings.TrimSpace(input.PartnerID),
		Date:       domain.Day(input.Date),
		InflowQty:  input.InflowQty,
		OutflowQty: input.OutflowQty,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.MovementRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("movement recorded",
		zap.String("partner_id", record.PartnerID),
		zap.String("date", record.Date.Format(domain.DateLayout)),
		zap.Int("inflow", record.InflowQty),
		zap.Int("outflow", record.OutflowQty))

	s.checkAllocation(ctx, record)

	return record, nil
}

// checkAllocation logs a stored allocation that no longer matches the day's outflow.
// The ledger flags the same mismatch, so a failed lookup is only logged.
func (s *MovementService) checkAllocation(ctx context.Context, record *domain.MovementRecord) {
	entries, err := s.AllocationRepo.ListByPartnerDate(ctx, record.PartnerID, record.Date)
	if err != nil {
		s.logger.Warn("could not check stored allocation", zap.String("partner_id", record.PartnerID), zap.Error(err))
		return
	}

	allocated := 0
	for _, e := range entries {
		allocated += e.Quantity
	}
	if allocated == 0 || allocated == record.OutflowQty {
		return
	}

	s.logger.Warn("stored allocation no longer matches outflow",
		zap.String("partner_id", record.PartnerID),
		zap.String("date", record.Date.Format(domain.DateLayout)),
		zap.Int("outflow", record.OutflowQty),
		zap.Int("allocated", allocated))
}
