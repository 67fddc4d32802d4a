package dto

import (
	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/reconciliation"
)

// Warning is a data-quality signal on a ledger row
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LedgerRow is one reconciliation row
type LedgerRow struct {
	PartnerID      string         `json:"partner_id"`
	Date           string         `json:"date"`
	SaleID         *string        `json:"sale_id"`
	TotalInflow    int            `json:"total_inflow"`
	ExitsByCause   map[string]int `json:"exits_by_cause"`
	TotalExits     int            `json:"total_exits"`
	CurrentBalance int            `json:"current_balance"`
	SaleUnitPrice  string         `json:"sale_unit_price"`
	SaleWeight     string         `json:"sale_weight"`
	SaleValue      string         `json:"sale_value"`
	Split60        string         `json:"split_60"`
	Split40        string         `json:"split_40"`
	Warnings       []Warning      `json:"warnings"`
}

// LedgerResponse is the reconciled ledger with its totals
type LedgerResponse struct {
	Rows         []LedgerRow `json:"rows"`
	TotalValue   string      `json:"total_value"`
	TotalSplit60 string      `json:"total_split_60"`
	TotalSplit40 string      `json:"total_split_40"`
}

// NewLedgerResponse builds the response for a set of reconciliation rows
func NewLedgerResponse(rows []domain.ReconciliationRow) LedgerResponse {
	value, split60, split40 := reconciliation.Totals(rows)

	resp := LedgerResponse{
		Rows:         make([]LedgerRow, 0, len(rows)),
		TotalValue:   value.String(),
		TotalSplit60: split60.String(),
		TotalSplit40: split40.String(),
	}

	for _, r := range rows {
		row := LedgerRow{
			PartnerID:      r.PartnerID,
			Date:           r.Date.Format(domain.DateLayout),
			TotalInflow:    r.TotalInflow,
			ExitsByCause:   make(map[string]int, len(r.ExitsByCause)),
			TotalExits:     r.TotalExits(),
			CurrentBalance: r.CurrentBalance,
			SaleUnitPrice:  r.SaleUnitPrice.String(),
			SaleWeight:     r.SaleWeight.String(),
			SaleValue:      r.SaleValue.String(),
			Split60:        r.Split60.String(),
			Split40:        r.Split40.String(),
			Warnings:       make([]Warning, 0, len(r.Warnings)),
		}
		if r.SaleID != nil {
			id := r.SaleID.String()
			row.SaleID = &id
		}
		for cause, qty := range r.ExitsByCause {
			row.ExitsByCause[string(cause)] = qty
		}
		for _, w := range r.Warnings {
			row.Warnings = append(row.Warnings, Warning{Code: string(w.Code()), Message: w.Message()})
		}
		resp.Rows = append(resp.Rows, row)
	}

	return resp
}
