package exit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/allocator"
	"github.com/simaogato/herdledger-backend/internal/usecase/sale"
)

// SaleSettler prices the sale that closes out the Sale share of an allocation
// and announces it once it is stored
type SaleSettler interface {
	NewSaleRecord(input sale.RecordSaleInput) (*domain.SaleRecord, error)
	Announce(ctx context.Context, record domain.SaleRecord)
}

// SaleTerms are the price and weight of the sale entered with an allocation
type SaleTerms struct {
	UnitPrice   decimal.Decimal
	TotalWeight decimal.Decimal
}

// RecordExitsInput represents the input for attributing a day's outflow to exit causes
type RecordExitsInput struct {
	PartnerID string
	Date      time.Time
	Entries   []domain.ExitAllocationEntry
	Sale      *SaleTerms // required when the Sale entry is > 0
}

// RecordExitsResult is what RecordExits stored
type RecordExitsResult struct {
	Allocation domain.ValidAllocation
	Sale       *domain.SaleRecord // nil when nothing was sold
}

// ExitService handles exit allocation operations
type ExitService struct {
	MovementRepo   domain.MovementRepository
	AllocationRepo domain.AllocationRepository
	Store          domain.ExitStore
	Sales          SaleSettler
	logger         *zap.Logger
}

// NewExitService creates a new ExitService instance
func NewExitService(movementRepo domain.MovementRepository, allocationRepo domain.AllocationRepository, store domain.ExitStore, sales SaleSettler, logger *zap.Logger) *ExitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExitService{
		MovementRepo:   movementRepo,
		AllocationRepo: allocationRepo,
		Store:          store,
		Sales:          sales,
		logger:         logger,
	}
}

// RecordExits attributes the outflow of a partner on a day to exit causes
// Logic:
//  1. Load the movement; its OutflowQty is the required total
//  2. Validate the allocation against it
//  3. A non-zero Sale entry needs sale terms, which are priced into a SaleRecord
//  4. Store the allocation and the sale together; without sold animals the day's
//     previous sale is removed in the same write
//  5. Announce the sale once stored
func (s *ExitService) RecordExits(ctx context.Context, input RecordExitsInput) (*RecordExitsResult, error) {
	partnerID := strings.TrimSpace(input.PartnerID)
	if partnerID == "" {
		return nil, domain.NewInvalidInput("partner_id", "must not be empty")
	}
	if input.Date.IsZero() {
		return nil, domain.NewInvalidInput("date", "must be set")
	}
	date := domain.Day(input.Date)

	movement, err := s.loadMovement(ctx, partnerID, date)
	if err != nil {
		return nil, err
	}

	allocation, err := allocator.ValidateAllocation(input.Entries, movement.OutflowQty)
	if err != nil {
		return nil, err
	}

	result := &RecordExitsResult{Allocation: allocation}

	sold := allocation.QuantityFor(domain.ExitCauseSale)
	switch {
	case sold > 0 && input.Sale == nil:
		return nil, domain.NewInvalidInput("sale", "sale terms are required when exits include sales")
	case sold == 0 && input.Sale != nil:
		return nil, domain.NewInvalidInput("sale", "sale terms given but no exits are attributed to sales")
	case sold > 0:
		record, err := s.Sales.NewSaleRecord(sale.RecordSaleInput{
			PartnerID:   partnerID,
			Date:        date,
			UnitPrice:   input.Sale.UnitPrice,
			TotalWeight: input.Sale.TotalWeight,
		})
		if err != nil {
			return nil, err
		}
		result.Sale = record
	}

	if err := s.Store.SaveExits(ctx, partnerID, date, allocation.Entries, result.Sale); err != nil {
		return nil, err
	}

	s.logger.Info("exits recorded",
		zap.String("partner_id", partnerID),
		zap.String("date", date.Format(domain.DateLayout)),
		zap.Int("total", allocation.Total),
		zap.Int("sold", sold))

	if result.Sale != nil {
		s.Sales.Announce(ctx, *result.Sale)
	}

	return result, nil
}

// GetDraft reopens the stored allocation of a partner/day for editing
func (s *ExitService) GetDraft(ctx context.Context, partnerID string, date time.Time) (*allocator.Draft, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return nil, domain.NewInvalidInput("partner_id", "must not be empty")
	}
	date = domain.Day(date)

	movement, err := s.loadMovement(ctx, partnerID, date)
	if err != nil {
		return nil, err
	}

	entries, err := s.AllocationRepo.ListByPartnerDate(ctx, partnerID, date)
	if err != nil {
		return nil, &domain.StorageUnavailableError{Op: "list allocations", Err: err}
	}

	return allocator.DraftFromEntries(movement.OutflowQty, entries), nil
}

func (s *ExitService) loadMovement(ctx context.Context, partnerID string, date time.Time) (*domain.MovementRecord, error) {
	movement, err := s.MovementRepo.GetByPartnerDate(ctx, partnerID, date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.StorageUnavailableError{Op: "get movement", Err: err}
	}
	return movement, nil
}
