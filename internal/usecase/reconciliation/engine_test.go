package reconciliation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

var (
	day1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	day3 = time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
)

func TestSplitRevenue_ReferenceSale(t *testing.T) {
	split60, split40 := SplitRevenue(decimal.NewFromInt(35000), 0)

	assert.True(t, split60.Equal(decimal.NewFromInt(21000)), "got %s", split60)
	assert.True(t, split40.Equal(decimal.NewFromInt(14000)), "got %s", split40)
}

func TestSplitRevenue_SharesAlwaysAddUp(t *testing.T) {
	values := []string{"0", "1", "0.01", "0.05", "10.01", "99999.99", "2499.995", "33333.333", "7"}
	placesList := []int32{0, 2}

	for _, places := range placesList {
		for _, v := range values {
			value := decimal.RequireFromString(v)
			split60, split40 := SplitRevenue(value, places)

			assert.True(t, split60.Add(split40).Equal(value), "places=%d value=%s: %s + %s", places, v, split60, split40)
			assert.Equal(t, places, -split60.Exponent(), "split60 should carry %d places, got %s", places, split60)
		}
	}
}

func TestSplitRevenue_RoundsOnlyTheMajorShare(t *testing.T) {
	// 10.01 * 0.6 = 6.006 -> 6.01, remainder 4.00
	split60, split40 := SplitRevenue(decimal.RequireFromString("10.01"), 2)

	assert.Equal(t, "6.01", split60.StringFixed(2))
	assert.Equal(t, "4.00", split40.StringFixed(2))
}

func TestReconcile_PartnerWithMultipleMovements(t *testing.T) {
	engine := NewEngine(0)

	movements := []domain.MovementRecord{
		{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 20},
		{ID: uuid.New(), PartnerID: "A", Date: day2, InflowQty: 15, OutflowQty: 12},
	}
	allocations := []domain.AllocationRecord{
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseSale, Quantity: 10},
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseDeath, Quantity: 2},
	}

	rows := engine.Reconcile(movements, allocations, nil)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "A", row.PartnerID)
	assert.Equal(t, 35, row.TotalInflow)
	assert.Equal(t, 23, row.CurrentBalance)
	assert.Equal(t, map[domain.ExitCause]int{
		domain.ExitCauseSale:  10,
		domain.ExitCauseDeath: 2,
		domain.ExitCauseTheft: 0,
	}, row.ExitsByCause)
	assert.Equal(t, day2, row.Date)
	assert.Nil(t, row.SaleID)
	assert.True(t, row.SaleValue.IsZero())
	assert.Empty(t, row.Warnings)
}

func TestReconcile_SaleRowCarriesSplit(t *testing.T) {
	engine := NewEngine(0)
	saleID := uuid.New()

	movements := []domain.MovementRecord{{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 30, OutflowQty: 10}}
	allocations := []domain.AllocationRecord{
		{PartnerID: "A", Date: day1, Cause: domain.ExitCauseSale, Quantity: 7},
		{PartnerID: "A", Date: day1, Cause: domain.ExitCauseDeath, Quantity: 3},
	}
	sales := []domain.SaleRecord{{
		ID:          saleID,
		PartnerID:   "A",
		Date:        day1,
		UnitPrice:   decimal.NewFromInt(5000),
		TotalWeight: decimal.NewFromInt(7),
		TotalValue:  decimal.NewFromInt(35000),
	}}

	rows := engine.Reconcile(movements, allocations, sales)

	require.Len(t, rows, 1)
	row := rows[0]
	require.NotNil(t, row.SaleID)
	assert.Equal(t, saleID, *row.SaleID)
	assert.Equal(t, 20, row.CurrentBalance)
	assert.True(t, row.SaleValue.Equal(decimal.NewFromInt(35000)))
	assert.True(t, row.Split60.Equal(decimal.NewFromInt(21000)))
	assert.True(t, row.Split40.Equal(decimal.NewFromInt(14000)))
	assert.True(t, row.SaleUnitPrice.Equal(decimal.NewFromInt(5000)))
	assert.True(t, row.SaleWeight.Equal(decimal.NewFromInt(7)))
}

func TestReconcile_OrphanAllocation(t *testing.T) {
	engine := NewEngine(0)

	movements := []domain.MovementRecord{{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 5}}
	allocations := []domain.AllocationRecord{
		{PartnerID: "Z", Date: day1, Cause: domain.ExitCauseDeath, Quantity: 2},
		{PartnerID: "Z", Date: day1, Cause: domain.ExitCauseTheft, Quantity: 1},
	}

	rows := engine.Reconcile(movements, allocations, nil)

	require.Len(t, rows, 2)
	var orphan domain.ReconciliationRow
	for _, r := range rows {
		if r.PartnerID == "Z" {
			orphan = r
		}
	}
	assert.Equal(t, 0, orphan.TotalInflow)
	assert.Equal(t, -3, orphan.CurrentBalance)
	assert.True(t, orphan.HasWarning(domain.WarningOrphanAllocation))
	assert.True(t, orphan.HasWarning(domain.WarningNegativeBalance))
}

func TestReconcile_NegativeBalanceIsNotClamped(t *testing.T) {
	engine := NewEngine(0)

	movements := []domain.MovementRecord{{ID: uuid.New(), PartnerID: "B", Date: day1, InflowQty: 4}}
	allocations := []domain.AllocationRecord{{PartnerID: "B", Date: day1, Cause: domain.ExitCauseSale, Quantity: 6}}

	rows := engine.Reconcile(movements, allocations, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, -2, rows[0].CurrentBalance)
	assert.True(t, rows[0].HasWarning(domain.WarningNegativeBalance))
	assert.False(t, rows[0].HasWarning(domain.WarningOrphanAllocation))
}

func TestReconcile_FlagsAllocationThatNoLongerMatchesOutflow(t *testing.T) {
	engine := NewEngine(0)

	movements := []domain.MovementRecord{
		{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 30, OutflowQty: 8},
		{ID: uuid.New(), PartnerID: "A", Date: day2, InflowQty: 0, OutflowQty: 4},
		{ID: uuid.New(), PartnerID: "A", Date: day3, InflowQty: 0, OutflowQty: 2},
	}
	allocations := []domain.AllocationRecord{
		{PartnerID: "A", Date: day1, Cause: domain.ExitCauseSale, Quantity: 7},
		{PartnerID: "A", Date: day1, Cause: domain.ExitCauseDeath, Quantity: 3},
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseTheft, Quantity: 4},
	}

	rows := engine.Reconcile(movements, allocations, nil)

	require.Len(t, rows, 1)
	require.Len(t, rows[0].Warnings, 1)
	assert.Equal(t, domain.AllocationMismatchWarning{PartnerID: "A", Date: day1, Outflow: 8, Allocated: 10}, rows[0].Warnings[0])
	assert.Contains(t, rows[0].Warnings[0].Message(), "2024-03-01")
}

func TestReconcile_OrderedByDateThenPartner(t *testing.T) {
	engine := NewEngine(0)

	movements := []domain.MovementRecord{
		{ID: uuid.New(), PartnerID: "C", Date: day1, InflowQty: 1},
		{ID: uuid.New(), PartnerID: "B", Date: day3, InflowQty: 1},
		{ID: uuid.New(), PartnerID: "A", Date: day3, InflowQty: 1},
		{ID: uuid.New(), PartnerID: "D", Date: day2, InflowQty: 1},
	}

	rows := engine.Reconcile(movements, nil, nil)

	require.Len(t, rows, 4)
	got := []string{rows[0].PartnerID, rows[1].PartnerID, rows[2].PartnerID, rows[3].PartnerID}
	assert.Equal(t, []string{"A", "B", "D", "C"}, got)
}

func TestReconcile_OneRowPerSale(t *testing.T) {
	engine := NewEngine(0)

	movements := []domain.MovementRecord{{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 50}}
	sales := []domain.SaleRecord{
		newSale("A", day1, 4000, 10),
		newSale("A", day3, 4500, 12),
	}

	rows := engine.Reconcile(movements, nil, sales)

	require.Len(t, rows, 2)
	assert.Equal(t, day3, rows[0].Date)
	assert.Equal(t, day1, rows[1].Date)
	// Partner aggregates repeat on every sale row
	assert.Equal(t, 50, rows[0].TotalInflow)
	assert.Equal(t, 50, rows[1].TotalInflow)

	// Rows must not share their maps
	rows[0].ExitsByCause[domain.ExitCauseSale] = 99
	assert.Equal(t, 0, rows[1].ExitsByCause[domain.ExitCauseSale])
}

func TestReconcile_EmptyInput(t *testing.T) {
	rows := NewEngine(0).Reconcile(nil, nil, nil)

	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestReconcile_IndependentOfInputOrder(t *testing.T) {
	engine := NewEngine(2)
	rng := rand.New(rand.NewSource(99))

	movements := []domain.MovementRecord{
		{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 20},
		{ID: uuid.New(), PartnerID: "A", Date: day2, InflowQty: 15},
		{ID: uuid.New(), PartnerID: "B", Date: day1, InflowQty: 8},
		{ID: uuid.New(), PartnerID: "C", Date: day3, InflowQty: 3},
	}
	allocations := []domain.AllocationRecord{
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseSale, Quantity: 10},
		{PartnerID: "A", Date: day2, Cause: domain.ExitCauseDeath, Quantity: 2},
		{PartnerID: "B", Date: day1, Cause: domain.ExitCauseTheft, Quantity: 1},
		{PartnerID: "Z", Date: day3, Cause: domain.ExitCauseDeath, Quantity: 4},
		{PartnerID: "C", Date: day3, Cause: domain.ExitCauseSale, Quantity: 5},
	}
	sales := []domain.SaleRecord{
		newSale("A", day2, 5000, 7),
		newSale("C", day3, 4100, 3),
	}

	expected := engine.Reconcile(movements, allocations, sales)

	for i := 0; i < 50; i++ {
		m := append([]domain.MovementRecord(nil), movements...)
		a := append([]domain.AllocationRecord(nil), allocations...)
		s := append([]domain.SaleRecord(nil), sales...)
		rng.Shuffle(len(m), func(i, j int) { m[i], m[j] = m[j], m[i] })
		rng.Shuffle(len(a), func(i, j int) { a[i], a[j] = a[j], a[i] })
		rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })

		assert.Equal(t, expected, engine.Reconcile(m, a, s))
	}
}

func TestTotals(t *testing.T) {
	engine := NewEngine(0)
	movements := []domain.MovementRecord{{ID: uuid.New(), PartnerID: "A", Date: day1, InflowQty: 50}}
	sales := []domain.SaleRecord{
		newSale("A", day1, 5000, 7),
		newSale("A", day2, 1001, 1),
	}

	value, split60, split40 := Totals(engine.Reconcile(movements, nil, sales))

	assert.True(t, value.Equal(decimal.NewFromInt(36001)))
	assert.True(t, split60.Add(split40).Equal(value))
}

func newSale(partnerID string, date time.Time, price, weight int64) domain.SaleRecord {
	p := decimal.NewFromInt(price)
	w := decimal.NewFromInt(weight)
	return domain.SaleRecord{
		ID:          uuid.New(),
		PartnerID:   partnerID,
		Date:        date,
		UnitPrice:   p,
		TotalWeight: w,
		TotalValue:  p.Mul(w),
	}
}
