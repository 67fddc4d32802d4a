package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

// MockMovementRepository is a mock implementation of MovementRepository for testing
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Upsert(ctx context.Context, movement *domain.MovementRecord) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) GetByPartnerDate(ctx context.Context, partnerID string, date time.Time) (*domain.MovementRecord, error) {
	args := m.Called(ctx, partnerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MovementRecord), args.Error(1)
}

func (m *MockMovementRepository) List(ctx context.Context) ([]domain.MovementRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MovementRecord), args.Error(1)
}

// MockAllocationRepository is a mock implementation of AllocationRepository for testing
type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) ListByPartnerDate(ctx context.Context, partnerID string, date time.Time) ([]domain.ExitAllocationEntry, error) {
	args := m.Called(ctx, partnerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExitAllocationEntry), args.Error(1)
}

func (m *MockAllocationRepository) List(ctx context.Context) ([]domain.AllocationRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AllocationRecord), args.Error(1)
}

// MockSaleRepository is a mock implementation of SaleRepository for testing
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) Upsert(ctx context.Context, sale *domain.SaleRecord) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) List(ctx context.Context) ([]domain.SaleRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SaleRecord), args.Error(1)
}

func TestGetLedger_ReconcilesAllRecords(t *testing.T) {
	ctx := context.Background()
	movementRepo := new(MockMovementRepository)
	allocationRepo := new(MockAllocationRepository)
	saleRepo := new(MockSaleRepository)

	movementRepo.On("List", ctx).Return([]domain.MovementRecord{
		{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 20},
		{ID: uuid.New(), PartnerID: "A", Date: day2, InflowQty: 15},
		{ID: uuid.New(), PartnerID: "B", Date: day1, InflowQty: 4},
	}, nil)
	allocationRepo.On("List", ctx).Return([]domain.AllocationRecord{
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseSale, Quantity: 10},
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseDeath, Quantity: 2},
	}, nil)
	saleRepo.On("List", ctx).Return([]domain.SaleRecord{newSale("A", day2, 5000, 7)}, nil)

	service := NewLedgerService(movementRepo, allocationRepo, saleRepo, NewEngine(0), nil)

	rows, err := service.GetLedger(ctx, LedgerFilter{})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].PartnerID)
	assert.Equal(t, 23, rows[0].CurrentBalance)
	assert.Equal(t, "21000", rows[0].Split60.String())
	assert.Equal(t, "B", rows[1].PartnerID)

	movementRepo.AssertExpectations(t)
	allocationRepo.AssertExpectations(t)
	saleRepo.AssertExpectations(t)
}

func TestGetLedger_FiltersByPartnerAfterReconciling(t *testing.T) {
	ctx := context.Background()
	movementRepo := new(MockMovementRepository)
	allocationRepo := new(MockAllocationRepository)
	saleRepo := new(MockSaleRepository)

	movementRepo.On("List", ctx).Return([]domain.MovementRecord{
		{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 20},
	}, nil)
	allocationRepo.On("List", ctx).Return([]domain.AllocationRecord{
		{PartnerID: "Z", Date: day1, Cause: domain.ExitCauseDeath, Quantity: 1},
	}, nil)
	saleRepo.On("List", ctx).Return([]domain.SaleRecord{}, nil)

	service := NewLedgerService(movementRepo, allocationRepo, saleRepo, NewEngine(0), nil)

	rows, err := service.GetLedger(ctx, LedgerFilter{PartnerID: " Z "})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Z", rows[0].PartnerID)
	assert.True(t, rows[0].HasWarning(domain.WarningOrphanAllocation))
}

func TestGetLedger_ReadFailuresAreStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	dbDown := errors.New("connection refused")

	tests := []struct {
		name  string
		setup func(m *MockMovementRepository, a *MockAllocationRepository, s *MockSaleRepository)
		op    string
	}{
		{
			name: "movements",
			setup: func(m *MockMovementRepository, a *MockAllocationRepository, s *MockSaleRepository) {
				m.On("List", ctx).Return(nil, dbDown)
			},
			op: "list movements",
		},
		{
			name: "allocations",
			setup: func(m *MockMovementRepository, a *MockAllocationRepository, s *MockSaleRepository) {
				m.On("List", ctx).Return([]domain.MovementRecord{}, nil)
				a.On("List", ctx).Return(nil, dbDown)
			},
			op: "list allocations",
		},
		{
			name: "sales",
			setup: func(m *MockMovementRepository, a *MockAllocationRepository, s *MockSaleRepository) {
				m.On("List", ctx).Return([]domain.MovementRecord{}, nil)
				a.On("List", ctx).Return([]domain.AllocationRecord{}, nil)
				s.On("List", ctx).Return(nil, dbDown)
			},
			op: "list sales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			movementRepo := new(MockMovementRepository)
			allocationRepo := new(MockAllocationRepository)
			saleRepo := new(MockSaleRepository)
			tt.setup(movementRepo, allocationRepo, saleRepo)

			service := NewLedgerService(movementRepo, allocationRepo, saleRepo, NewEngine(0), nil)

			rows, err := service.GetLedger(ctx, LedgerFilter{})

			assert.Nil(t, rows)
			var unavailable *domain.StorageUnavailableError
			require.True(t, errors.As(err, &unavailable))
			assert.Equal(t, tt.op, unavailable.Op)
			assert.ErrorIs(t, err, dbDown)
		})
	}
}
