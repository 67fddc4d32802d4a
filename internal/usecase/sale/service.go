package sale

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/reconciliation"
)

// Notifier is told about every persisted sale
type Notifier interface {
	SaleRecorded(ctx context.Context, sale domain.SaleRecord) error
}

// RecordSaleInput represents the input for recording a sale
type RecordSaleInput struct {
	PartnerID   string
	Date        time.Time
	UnitPrice   decimal.Decimal
	TotalWeight decimal.Decimal
}

// SalePreview is the value of a sale and its settlement split, before anything is stored
type SalePreview struct {
	Value   decimal.Decimal
	Split60 decimal.Decimal
	Split40 decimal.Decimal
}

// SaleService handles sale recording operations
type SaleService struct {
	SaleRepo       domain.SaleRepository
	AllocationRepo domain.AllocationRepository
	Notifier       Notifier // optional
	CurrencyPlaces int32
	logger         *zap.Logger
}

// NewSaleService creates a new SaleService instance
func NewSaleService(saleRepo domain.SaleRepository, allocationRepo domain.AllocationRepository, notifier Notifier, currencyPlaces int32, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		SaleRepo:       saleRepo,
		AllocationRepo: allocationRepo,
		Notifier:       notifier,
		CurrencyPlaces: currencyPlaces,
		logger:         logger,
	}
}

// NewSaleRecord prices a sale without storing it.
// Price per kilo and total kilos must both be positive; value = price * kilos (exact).
func (s *SaleService) NewSaleRecord(input RecordSaleInput) (*domain.SaleRecord, error) {
	if strings.TrimSpace(input.PartnerID) == "" {
		return nil, domain.NewInvalidInput("partner_id", "must not be empty")
	}
	if input.Date.IsZero() {
		return nil, domain.NewInvalidInput("date", "must be set")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, domain.NewInvalidInput("unit_price", "must be greater than 0")
	}
	if !input.TotalWeight.IsPositive() {
		return nil, domain.NewInvalidInput("total_weight", "must be greater than 0")
	}

	value, err := ComputeSaleValue(input.UnitPrice, input.TotalWeight)
	if err != nil {
		return nil, err
	}

	record := &domain.SaleRecord{
		ID:          uuid.New(),
		PartnerID:   strings.TrimSpace(input.PartnerID),
		Date:        domain.Day(input.Date),
		UnitPrice:   input.UnitPrice,
		TotalWeight: input.TotalWeight,
		TotalValue:  value,
		CreatedAt:   time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// RecordSale re-prices the sale of a partner on a day whose exits already attribute animals to sales
// Logic:
//  1. Build the record (see NewSaleRecord)
//  2. The stored allocation of that partner/day must hold a Sale entry > 0
//  3. Upsert: a second sale for the same partner and day replaces the first
//  4. Notify; a failed notification is logged, the sale stays recorded
func (s *SaleService) RecordSale(ctx context.Context, input RecordSaleInput) (*domain.SaleRecord, error) {
	record, err := s.NewSaleRecord(input)
	if err != nil {
		return nil, err
	}

	entries, err := s.AllocationRepo.ListByPartnerDate(ctx, record.PartnerID, record.Date)
	if err != nil {
		return nil, &domain.StorageUnavailableError{Op: "list allocations", Err: err}
	}
	if soldQuantity(entries) == 0 {
		return nil, domain.NewInvalidInput("sale", "no exits are attributed to sales for this partner and date")
	}

	if err := s.SaleRepo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.Announce(ctx, *record)

	return record, nil
}

// Announce logs a stored sale and forwards it to the notifier
func (s *SaleService) Announce(ctx context.Context, record domain.SaleRecord) {
	s.logger.Info("sale recorded",
		zap.String("partner_id", record.PartnerID),
		zap.String("date", record.Date.Format(domain.DateLayout)),
		zap.String("value", record.TotalValue.String()))

	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SaleRecorded(ctx, record); err != nil {
		s.logger.Warn("sale notification failed", zap.String("sale_id", record.ID.String()), zap.Error(err))
	}
}

func soldQuantity(entries []domain.ExitAllocationEntry) int {
	sold := 0
	for _, e := range entries {
		if e.Cause == domain.ExitCauseSale {
			sold += e.Quantity
		}
	}
	return sold
}

// PreviewSale computes the value and the 60/40 split without persisting anything
func (s *SaleService) PreviewSale(unitPrice, weight decimal.Decimal) (*SalePreview, error) {
	value, err := ComputeSaleValue(unitPrice, weight)
	if err != nil {
		return nil, err
	}

	split60, split40 := reconciliation.SplitRevenue(value, s.CurrencyPlaces)

	return &SalePreview{Value: value, Split60: split60, Split40: split40}, nil
}
