package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

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

// Server implements the LedgerService gRPC server
type Server struct {
	MovementService MovementRecorder
	ExitService     ExitRecorder
	SaleService     SaleRecorder
	LedgerService   LedgerReader
	Causes          CauseLister
	logger          *zap.Logger
}

var _ LedgerServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	movementService MovementRecorder,
	exitService ExitRecorder,
	saleService SaleRecorder,
	ledgerService LedgerReader,
	causes CauseLister,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		MovementService: movementService,
		ExitService:     exitService,
		SaleService:     saleService,
		LedgerService:   ledgerService,
		Causes:          causes,
		logger:          logger,
	}
}

// RecordMovement handles the RecordMovement RPC
func (s *Server) RecordMovement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.MovementRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	input, err := in.ToInput()
	if err != nil {
		return nil, mapError(err)
	}

	record, err := s.MovementService.RecordMovement(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewMovementResponse(record))
}

// RecordExits handles the RecordExits RPC
func (s *Server) RecordExits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.ExitsRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	input, err := in.ToInput()
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.ExitService.RecordExits(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewExitsResponse(result))
}

// GetExitDraft handles the GetExitDraft RPC
func (s *Server) GetExitDraft(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	partnerID := req.GetFields()["partner_id"].GetStringValue()
	dateStr := req.GetFields()["date"].GetStringValue()

	date, err := domain.ParseDay(dateStr)
	if err != nil {
		return nil, mapError(err)
	}

	draft, err := s.ExitService.GetDraft(ctx, partnerID, date)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewDraftResponse(partnerID, date.Format(domain.DateLayout), draft))
}

// RecordSale handles the RecordSale RPC
func (s *Server) RecordSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.SaleRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	input, err := in.ToInput()
	if err != nil {
		return nil, mapError(err)
	}

	record, err := s.SaleService.RecordSale(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewSaleResponse(record))
}

// PreviewSale handles the PreviewSale RPC
func (s *Server) PreviewSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.PreviewRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	price, weight, err := in.Parse()
	if err != nil {
		return nil, mapError(err)
	}

	preview, err := s.SaleService.PreviewSale(price, weight)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewPreviewResponse(preview))
}

// ValidateAllocation handles the ValidateAllocation RPC
func (s *Server) ValidateAllocation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in dto.ValidateAllocationRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	entries, err := in.ToEntries()
	if err != nil {
		return nil, mapError(err)
	}

	allocation, err := allocator.ValidateAllocation(entries, in.RequiredTotal)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewAllocationResponse(allocation))
}

// GetLedger handles the GetLedger RPC
func (s *Server) GetLedger(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := reconciliation.LedgerFilter{
		PartnerID: req.GetFields()["partner_id"].GetStringValue(),
	}

	rows, err := s.LedgerService.GetLedger(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}

	return encode(dto.NewLedgerResponse(rows))
}

// ListExitCauses handles the ListExitCauses RPC
func (s *Server) ListExitCauses(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	causes, err := s.Causes.List(ctx)
	if err != nil {
		return nil, mapError(&domain.StorageUnavailableError{Op: "list exit causes", Err: err})
	}

	out := make([]dto.CauseResponse, 0, len(causes))
	for _, c := range causes {
		out = append(out, dto.CauseResponse{Code: string(c.Code), Label: c.Label})
	}

	return encode(map[string]any{"causes": out})
}

// decode reads a Struct request into a DTO through its JSON form
func decode(req *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// encode writes a DTO into a Struct response through its JSON form
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var inputErr *domain.InvalidInputError
	if errors.As(err, &inputErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	var allocErr *domain.AllocationError
	if errors.As(err, &allocErr) {
		st := status.New(codes.FailedPrecondition, err.Error())
		withInfo, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: string(allocErr.Kind),
			Domain: "herdledger",
			Metadata: map[string]string{
				"cause":     string(allocErr.Cause),
				"assigned":  strconv.Itoa(allocErr.Assigned),
				"required":  strconv.Itoa(allocErr.Required),
				"remaining": strconv.Itoa(allocErr.Remaining),
			},
		})
		if detailErr != nil {
			return st.Err()
		}
		return withInfo.Err()
	}

	if errors.Is(err, domain.ErrSaleNotToggleable) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	if errors.Is(err, domain.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}

	var unavailable *domain.StorageUnavailableError
	if errors.As(err, &unavailable) {
		return status.Error(codes.Unavailable, err.Error())
	}

	// Storage write failures and anything unexpected
	return status.Error(codes.Internal, strings.TrimSpace(err.Error()))
}
