package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/herdledger-backend/internal/adapter/dto"
	"github.com/simaogato/herdledger-backend/internal/domain"
	"github.com/simaogato/herdledger-backend/internal/usecase/allocator"
	"github.com/simaogato/herdledger-backend/internal/usecase/exit"
	"github.com/simaogato/herdledger-backend/internal/usecase/movement"
	"github.com/simaogato/herdledger-backend/internal/usecase/reconciliation"
	"github.com/simaogato/herdledger-backend/internal/usecase/sale"
)

// MovementRecorder records daily movements
type MovementRecorder interface {
	RecordMovement(ctx context.Context, input movement.RecordMovementInput) (*domain.MovementRecord, error)
}

// ExitRecorder records exit allocations and reopens them as drafts
type ExitRecorder interface {
	RecordExits(ctx context.Context, input exit.RecordExitsInput) (*exit.RecordExitsResult, error)
	GetDraft(ctx context.Context, partnerID string, date time.Time) (*allocator.Draft, error)
}

// SaleRecorder records and previews sales
type SaleRecorder interface {
	RecordSale(ctx context.Context, input sale.RecordSaleInput) (*domain.SaleRecord, error)
	PreviewSale(unitPrice, weight decimal.Decimal) (*sale.SalePreview, error)
}

// LedgerReader produces the reconciled ledger
type LedgerReader interface {
	GetLedger(ctx context.Context, filter reconciliation.LedgerFilter) ([]domain.ReconciliationRow, error)
}

// CauseLister lists the exit cause catalogue
type CauseLister interface {
	List(ctx context.Context) ([]domain.ExitCauseInfo, error)
}

// Handler serves the ledger over HTTP
type Handler struct {
	Movements MovementRecorder
	Exits     ExitRecorder
	Sales     SaleRecorder
	Ledger    LedgerReader
	Causes    CauseLister
	logger    *zap.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(movements MovementRecorder, exits ExitRecorder, sales SaleRecorder, ledger LedgerReader, causes CauseLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Movements: movements,
		Exits:     exits,
		Sales:     sales,
		Ledger:    ledger,
		Causes:    causes,
		logger:    logger,
	}
}

// RecordMovement handles POST /api/v1/movements
func (h *Handler) RecordMovement(c *gin.Context) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	record, err := h.Movements.RecordMovement(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMovementResponse(record))
}

// RecordExits handles POST /api/v1/exits
func (h *Handler) RecordExits(c *gin.Context) {
	var req dto.ExitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.Exits.RecordExits(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewExitsResponse(result))
}

// GetExitDraft handles GET /api/v1/exits/draft?partner_id=&date=
func (h *Handler) GetExitDraft(c *gin.Context) {
	partnerID := c.Query("partner_id")
	date, err := domain.ParseDay(c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}

	draft, err := h.Exits.GetDraft(c.Request.Context(), partnerID, date)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDraftResponse(partnerID, date.Format(domain.DateLayout), draft))
}

// RecordSale handles POST /api/v1/sales
func (h *Handler) RecordSale(c *gin.Context) {
	var req dto.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.fail(c, err)
		return
	}

	record, err := h.Sales.RecordSale(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSaleResponse(record))
}

// PreviewSale handles POST /api/v1/sales/preview
func (h *Handler) PreviewSale(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	price, weight, err := req.Parse()
	if err != nil {
		h.fail(c, err)
		return
	}

	preview, err := h.Sales.PreviewSale(price, weight)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPreviewResponse(preview))
}

// ValidateAllocation handles POST /api/v1/allocations/validate
func (h *Handler) ValidateAllocation(c *gin.Context) {
	var req dto.ValidateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	entries, err := req.ToEntries()
	if err != nil {
		h.fail(c, err)
		return
	}

	allocation, err := allocator.ValidateAllocation(entries, req.RequiredTotal)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAllocationResponse(allocation))
}

// GetLedger handles GET /api/v1/ledger?partner_id=
func (h *Handler) GetLedger(c *gin.Context) {
	rows, err := h.Ledger.GetLedger(c.Request.Context(), reconciliation.LedgerFilter{PartnerID: c.Query("partner_id")})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLedgerResponse(rows))
}

// ListCauses handles GET /api/v1/causes
func (h *Handler) ListCauses(c *gin.Context) {
	causes, err := h.Causes.List(c.Request.Context())
	if err != nil {
		h.fail(c, &domain.StorageUnavailableError{Op: "list exit causes", Err: err})
		return
	}

	out := make([]dto.CauseResponse, 0, len(causes))
	for _, cause := range causes {
		out = append(out, dto.CauseResponse{Code: string(cause.Code), Label: cause.Label})
	}

	c.JSON(http.StatusOK, gin.H{"causes": out})
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	Cause     string `json:"cause,omitempty"`
	Assigned  *int   `json:"assigned,omitempty"`
	Required  *int   `json:"required,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

// fail maps domain errors to HTTP statuses
func (h *Handler) fail(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var inputErr *domain.InvalidInputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT", Field: inputErr.Field}
	}

	var allocErr *domain.AllocationError
	if errors.As(err, &allocErr) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:     err.Error(),
			Code:      string(allocErr.Kind),
			Cause:     string(allocErr.Cause),
			Assigned:  &allocErr.Assigned,
			Required:  &allocErr.Required,
			Remaining: &allocErr.Remaining,
		}
	}

	if errors.Is(err, domain.ErrSaleNotToggleable) {
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"}
	}

	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"}
	}

	var unavailable *domain.StorageUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "STORAGE_UNAVAILABLE"}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"}
}
