// Package dto holds the wire shapes shared by the gRPC and HTTP surfaces
// and their conversion to and from use-case inputs.
package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/allocator"
	"github.com/simaogato/herdledger-backend/internal/usecase/exit"
	"github.com/simaogato/herdledger-backend/internal/usecase/movement"
	"github.com/simaogato/herdledger-backend/internal/usecase/sale"
)

// MovementRequest records the inflow/outflow of a partner on a day
type MovementRequest struct {
	PartnerID  string `json:"partner_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
	InflowQty  int    `json:"inflow_qty"`
	OutflowQty int    `json:"outflow_qty"`
}

// ToInput converts the request into a movement.RecordMovementInput
func (r MovementRequest) ToInput() (movement.RecordMovementInput, error) {
	date, err := domain.ParseDay(r.Date)
	if err != nil {
		return movement.RecordMovementInput{}, err
	}
	return movement.RecordMovementInput{
		PartnerID:  r.PartnerID,
		Date:       date,
		InflowQty:  r.InflowQty,
		OutflowQty: r.OutflowQty,
	}, nil
}

// MovementResponse is a stored movement
type MovementResponse struct {
	ID         string `json:"id"`
	PartnerID  string `json:"partner_id"`
	Date       string `json:"date"`
	InflowQty  int    `json:"inflow_qty"`
	OutflowQty int    `json:"outflow_qty"`
}

// NewMovementResponse builds the response for a stored movement
func NewMovementResponse(m *domain.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:         m.ID.String(),
		PartnerID:  m.PartnerID,
		Date:       m.Date.Format(domain.DateLayout),
		InflowQty:  m.InflowQty,
		OutflowQty: m.OutflowQty,
	}
}

// AllocationEntry is one cause/quantity pair
type AllocationEntry struct {
	Cause    string `json:"cause"`
	Quantity int    `json:"quantity"`
}

// SaleTerms are the price per kilo and kilos of a sale, as decimal strings
type SaleTerms struct {
	UnitPrice   string `json:"unit_price"`
	TotalWeight string `json:"total_weight"`
}

// ExitsRequest attributes a day's outflow to exit causes
type ExitsRequest struct {
	PartnerID string            `json:"partner_id" binding:"required"`
	Date      string            `json:"date" binding:"required"`
	Entries   []AllocationEntry `json:"entries"`
	Sale      *SaleTerms        `json:"sale,omitempty"`
}

// ToInput converts the request into an exit.RecordExitsInput
func (r ExitsRequest) ToInput() (exit.RecordExitsInput, error) {
	date, err := domain.ParseDay(r.Date)
	if err != nil {
		return exit.RecordExitsInput{}, err
	}

	entries, err := parseEntries(r.Entries)
	if err != nil {
		return exit.RecordExitsInput{}, err
	}

	input := exit.RecordExitsInput{
		PartnerID: r.PartnerID,
		Date:      date,
		Entries:   entries,
	}

	if r.Sale != nil {
		price, err := ParseDecimal("unit_price", r.Sale.UnitPrice)
		if err != nil {
			return exit.RecordExitsInput{}, err
		}
		weight, err := ParseDecimal("total_weight", r.Sale.TotalWeight)
		if err != nil {
			return exit.RecordExitsInput{}, err
		}
		input.Sale = &exit.SaleTerms{UnitPrice: price, TotalWeight: weight}
	}

	return input, nil
}

// ExitsResponse is the stored allocation and, when sold, the sale
type ExitsResponse struct {
	Total   int               `json:"total"`
	Entries []AllocationEntry `json:"entries"`
	Sale    *SaleResponse     `json:"sale,omitempty"`
}

// NewExitsResponse builds the response for a stored allocation
func NewExitsResponse(result *exit.RecordExitsResult) ExitsResponse {
	resp := ExitsResponse{
		Total:   result.Allocation.Total,
		Entries: toEntries(result.Allocation.Entries),
	}
	if result.Sale != nil {
		s := NewSaleResponse(result.Sale)
		resp.Sale = &s
	}
	return resp
}

// SaleRequest records a sale directly
type SaleRequest struct {
	PartnerID   string `json:"partner_id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	TotalWeight string `json:"total_weight" binding:"required"`
}

// ToInput converts the request into a sale.RecordSaleInput
func (r SaleRequest) ToInput() (sale.RecordSaleInput, error) {
	date, err := domain.ParseDay(r.Date)
	if err != nil {
		return sale.RecordSaleInput{}, err
	}
	price, err := ParseDecimal("unit_price", r.UnitPrice)
	if err != nil {
		return sale.RecordSaleInput{}, err
	}
	weight, err := ParseDecimal("total_weight", r.TotalWeight)
	if err != nil {
		return sale.RecordSaleInput{}, err
	}
	return sale.RecordSaleInput{
		PartnerID:   r.PartnerID,
		Date:        date,
		UnitPrice:   price,
		TotalWeight: weight,
	}, nil
}

// SaleResponse is a stored sale
type SaleResponse struct {
	ID          string `json:"id"`
	PartnerID   string `json:"partner_id"`
	Date        string `json:"date"`
	UnitPrice   string `json:"unit_price"`
	TotalWeight string `json:"total_weight"`
	TotalValue  string `json:"total_value"`
}

// NewSaleResponse builds the response for a stored sale
func NewSaleResponse(s *domain.SaleRecord) SaleResponse {
	return SaleResponse{
		ID:          s.ID.String(),
		PartnerID:   s.PartnerID,
		Date:        s.Date.Format(domain.DateLayout),
		UnitPrice:   s.UnitPrice.String(),
		TotalWeight: s.TotalWeight.String(),
		TotalValue:  s.TotalValue.String(),
	}
}

// PreviewRequest asks for the value and split of a prospective sale
type PreviewRequest struct {
	UnitPrice   string `json:"unit_price" binding:"required"`
	TotalWeight string `json:"total_weight" binding:"required"`
}

// Parse returns the decimal price and weight
func (r PreviewRequest) Parse() (price, weight decimal.Decimal, err error) {
	if price, err = ParseDecimal("unit_price", r.UnitPrice); err != nil {
		return
	}
	weight, err = ParseDecimal("total_weight", r.TotalWeight)
	return
}

// PreviewResponse is the value and 60/40 split of a prospective sale
type PreviewResponse struct {
	Value   string `json:"value"`
	Split60 string `json:"split_60"`
	Split40 string `json:"split_40"`
}

// NewPreviewResponse builds the response for a sale preview
func NewPreviewResponse(p *sale.SalePreview) PreviewResponse {
	return PreviewResponse{
		Value:   p.Value.String(),
		Split60: p.Split60.String(),
		Split40: p.Split40.String(),
	}
}

// ValidateAllocationRequest checks an allocation against a required total
type ValidateAllocationRequest struct {
	RequiredTotal int               `json:"required_total"`
	Entries       []AllocationEntry `json:"entries"`
}

// ToEntries parses the request entries
func (r ValidateAllocationRequest) ToEntries() ([]domain.ExitAllocationEntry, error) {
	return parseEntries(r.Entries)
}

// AllocationResponse is a validated allocation
type AllocationResponse struct {
	Total   int               `json:"total"`
	Entries []AllocationEntry `json:"entries"`
}

// NewAllocationResponse builds the response for a validated allocation
func NewAllocationResponse(a domain.ValidAllocation) AllocationResponse {
	return AllocationResponse{Total: a.Total, Entries: toEntries(a.Entries)}
}

// DraftResponse is an allocation reopened for editing
type DraftResponse struct {
	PartnerID     string            `json:"partner_id"`
	Date          string            `json:"date"`
	RequiredTotal int               `json:"required_total"`
	Assigned      int               `json:"assigned"`
	Remaining     int               `json:"remaining"`
	Complete      bool              `json:"complete"`
	Entries       []AllocationEntry `json:"entries"`
}

// NewDraftResponse builds the response for an allocation draft
func NewDraftResponse(partnerID, date string, d *allocator.Draft) DraftResponse {
	return DraftResponse{
		PartnerID:     strings.TrimSpace(partnerID),
		Date:          date,
		RequiredTotal: d.RequiredTotal(),
		Assigned:      d.Assigned(),
		Remaining:     d.Remaining(),
		Complete:      d.Complete(),
		Entries:       toEntries(d.Entries()),
	}
}

// CauseResponse is one exit cause catalogue entry
type CauseResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ParseDecimal parses a decimal field, reporting failures as invalid input
func ParseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, domain.NewInvalidInput(field, "must be a decimal number")
	}
	return d, nil
}

func parseEntries(in []AllocationEntry) ([]domain.ExitAllocationEntry, error) {
	entries := make([]domain.ExitAllocationEntry, 0, len(in))
	for _, e := range in {
		cause, err := domain.ParseExitCause(e.Cause)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.ExitAllocationEntry{Cause: cause, Quantity: e.Quantity})
	}
	return entries, nil
}

func toEntries(in []domain.ExitAllocationEntry) []AllocationEntry {
	out := make([]AllocationEntry, 0, len(in))
	for _, e := range in {
		out = append(out, AllocationEntry{Cause: string(e.Cause), Quantity: e.Quantity})
	}
	return out
}
