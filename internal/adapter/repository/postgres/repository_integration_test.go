//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

var testDB *DB

// TestMain connects to the database named by TEST_DB_CONN_STR and applies the migrations
func TestMain(m *testing.M) {
	connStr := os.Getenv("TEST_DB_CONN_STR")
	if connStr == "" {
		connStr = "host=localhost port=5432 user=postgres password=postgres dbname=herdledger_test sslmode=disable"
	}

	var err error
	testDB, err = NewDB(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if _, err := Migrate(testDB); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// uniquePartner keeps tests independent of each other and of leftover rows
func uniquePartner(t *testing.T) string {
	t.Helper()
	partner := "it-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		ctx := context.Background()
		testDB.ExecContext(ctx, `DELETE FROM movements WHERE partner_id = $1`, partner)
		testDB.ExecContext(ctx, `DELETE FROM exit_allocations WHERE partner_id = $1`, partner)
		testDB.ExecContext(ctx, `DELETE FROM sales WHERE partner_id = $1`, partner)
	})
	return partner
}

func TestMigrate_Idempotent(t *testing.T) {
	version, err := Migrate(testDB)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMovementRepository_UpsertReplacesSameDay(t *testing.T) {
	ctx := context.Background()
	repo := NewMovementRepository(testDB)
	partner := uniquePartner(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	first := &domain.MovementRecord{ID: uuid.New(), PartnerID: partner, Date: day, InflowQty: 20, OutflowQty: 10}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &domain.MovementRecord{ID: uuid.New(), PartnerID: partner, Date: day, InflowQty: 25, OutflowQty: 12}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetByPartnerDate(ctx, partner, day)
	require.NoError(t, err)
	assert.Equal(t, 25, got.InflowQty)
	assert.Equal(t, 12, got.OutflowQty)
	assert.True(t, got.Date.Equal(day))

	_, err = repo.GetByPartnerDate(ctx, partner, day.AddDate(0, 0, 1))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func newTestSale(partner string, day time.Time, price, weight int64) *domain.SaleRecord {
	p, w := decimal.NewFromInt(price), decimal.NewFromInt(weight)
	return &domain.SaleRecord{
		ID:          uuid.New(),
		PartnerID:   partner,
		Date:        day,
		UnitPrice:   p,
		TotalWeight: w,
		TotalValue:  p.Mul(w),
		CreatedAt:   time.Now().UTC(),
	}
}

func salesOf(t *testing.T, partner string) []domain.SaleRecord {
	t.Helper()
	all, err := NewSaleRepository(testDB).List(context.Background())
	require.NoError(t, err)
	var found []domain.SaleRecord
	for _, s := range all {
		if s.PartnerID == partner {
			found = append(found, s)
		}
	}
	return found
}

func TestExitStore_SaveExitsReplacesPreviousEntries(t *testing.T) {
	ctx := context.Background()
	store := NewExitStore(testDB)
	allocations := NewAllocationRepository(testDB)
	partner := uniquePartner(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveExits(ctx, partner, day, []domain.ExitAllocationEntry{
		{Cause: domain.ExitCauseSale, Quantity: 8},
		{Cause: domain.ExitCauseDeath, Quantity: 2},
	}, newTestSale(partner, day, 5000, 8)))
	require.Len(t, salesOf(t, partner), 1)

	require.NoError(t, store.SaveExits(ctx, partner, day, []domain.ExitAllocationEntry{
		{Cause: domain.ExitCauseTheft, Quantity: 10},
		{Cause: domain.ExitCauseSale, Quantity: 0},
	}, nil))

	entries, err := allocations.ListByPartnerDate(ctx, partner, day)
	require.NoError(t, err)
	assert.Equal(t, []domain.ExitAllocationEntry{{Cause: domain.ExitCauseTheft, Quantity: 10}}, entries)
	assert.Empty(t, salesOf(t, partner))
}

func TestExitStore_FailedWriteRollsBackSaleAndAllocation(t *testing.T) {
	ctx := context.Background()
	store := NewExitStore(testDB)
	allocations := NewAllocationRepository(testDB)
	partner := uniquePartner(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveExits(ctx, partner, day, []domain.ExitAllocationEntry{
		{Cause: domain.ExitCauseDeath, Quantity: 3},
	}, nil))

	// quantity violates the CHECK constraint after the sale row is staged
	err := store.SaveExits(ctx, partner, day, []domain.ExitAllocationEntry{
		{Cause: domain.ExitCauseSale, Quantity: -1},
	}, newTestSale(partner, day, 100, 1))

	var storageErr *domain.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Empty(t, salesOf(t, partner))
	entries, err := allocations.ListByPartnerDate(ctx, partner, day)
	require.NoError(t, err)
	assert.Equal(t, []domain.ExitAllocationEntry{{Cause: domain.ExitCauseDeath, Quantity: 3}}, entries)
}

func TestSaleRepository_RoundTripsExactDecimals(t *testing.T) {
	ctx := context.Background()
	repo := NewSaleRepository(testDB)
	partner := uniquePartner(t)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	price := decimal.RequireFromString("4999.99")
	weight := decimal.RequireFromString("0.333")
	sale := &domain.SaleRecord{
		ID:          uuid.New(),
		PartnerID:   partner,
		Date:        day,
		UnitPrice:   price,
		TotalWeight: weight,
		TotalValue:  price.Mul(weight),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, sale))

	sales, err := repo.List(ctx)
	require.NoError(t, err)

	var found *domain.SaleRecord
	for i := range sales {
		if sales[i].PartnerID == partner {
			found = &sales[i]
		}
	}
	require.NotNil(t, found)
	assert.True(t, found.TotalValue.Equal(decimal.RequireFromString("1664.99667")))
	assert.NoError(t, found.Validate())
}

func TestExitCauseRepository_GetMissing(t *testing.T) {
	repo := NewExitCauseRepository(testDB)

	_, err := repo.Get(context.Background(), domain.ExitCause("UNKNOWN"))

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
