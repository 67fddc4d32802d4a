package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/herdledger-backend/internal/domain"
)

func TestExitsRequest_ToInput(t *testing.T) {
	req := ExitsRequest{
		PartnerID: "A",
		Date:      "2024-03-15",
		Entries: []AllocationEntry{
			{Cause: "ventas", Quantity: 8},
			{Cause: "DEATH", Quantity: 2},
		},
		Sale: &SaleTerms{UnitPrice: "5000", TotalWeight: "7.5"},
	}

	input, err := req.ToInput()

	require.NoError(t, err)
	assert.True(t, input.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []domain.ExitAllocationEntry{
		{Cause: domain.ExitCauseSale, Quantity: 8},
		{Cause: domain.ExitCauseDeath, Quantity: 2},
	}, input.Entries)
	require.NotNil(t, input.Sale)
	assert.True(t, input.Sale.TotalWeight.Equal(decimal.RequireFromString("7.5")))
}

func TestExitsRequest_ToInputErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   ExitsRequest
		field string
	}{
		{name: "bad date", req: ExitsRequest{PartnerID: "A", Date: "15/03/2024"}, field: "date"},
		{name: "unknown cause", req: ExitsRequest{PartnerID: "A", Date: "2024-03-15", Entries: []AllocationEntry{{Cause: "flood", Quantity: 1}}}, field: "cause"},
		{name: "bad price", req: ExitsRequest{PartnerID: "A", Date: "2024-03-15", Sale: &SaleTerms{UnitPrice: "abc", TotalWeight: "1"}}, field: "unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToInput()

			var inputErr *domain.InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}

func TestNewLedgerResponse(t *testing.T) {
	saleID := uuid.New()
	rows := []domain.ReconciliationRow{
		{
			PartnerID:      "A",
			Date:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			SaleID:         &saleID,
			TotalInflow:    20,
			ExitsByCause:   map[domain.ExitCause]int{domain.ExitCauseSale: 8, domain.ExitCauseDeath: 1, domain.ExitCauseTheft: 1},
			CurrentBalance: 10,
			SaleValue:      decimal.NewFromInt(35000),
			Split60:        decimal.NewFromInt(21000),
			Split40:        decimal.NewFromInt(14000),
		},
		{
			PartnerID:      "B",
			Date:           time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
			ExitsByCause:   map[domain.ExitCause]int{domain.ExitCauseSale: 0, domain.ExitCauseDeath: 3, domain.ExitCauseTheft: 0},
			CurrentBalance: -3,
			Warnings:       []domain.Warning{domain.NegativeBalanceWarning{PartnerID: "B", Balance: -3}},
		},
	}

	resp := NewLedgerResponse(rows)

	assert.Equal(t, "35000", resp.TotalValue)
	assert.Equal(t, "21000", resp.TotalSplit60)
	assert.Equal(t, "14000", resp.TotalSplit40)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, saleID.String(), *resp.Rows[0].SaleID)
	assert.Equal(t, 10, resp.Rows[0].TotalExits)
	assert.Nil(t, resp.Rows[1].SaleID)
	assert.Equal(t, "0", resp.Rows[1].SaleValue)
	require.Len(t, resp.Rows[1].Warnings, 1)
	assert.Equal(t, "NEGATIVE_BALANCE", resp.Rows[1].Warnings[0].Code)
}
