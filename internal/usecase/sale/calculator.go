package sale

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/herdledger-backend/internal/domain"
)

// ComputeSaleValue returns unitPrice * weight, exact.
// No rounding is applied here; the ledger rounds once when splitting revenue.
func ComputeSaleValue(unitPrice, weight decimal.Decimal) (decimal.Decimal, error) {
	if unitPrice.IsNegative() {
		return decimal.Zero, domain.NewInvalidInput("unit_price", "must be non-negative")
	}
	if weight.IsNegative() {
		return decimal.Zero, domain.NewInvalidInput("total_weight", "must be non-negative")
	}
	return unitPrice.Mul(weight), nil
}
