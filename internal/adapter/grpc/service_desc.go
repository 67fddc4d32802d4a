package grpc

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// LedgerServiceName is the fully qualified gRPC service name
	LedgerServiceName = "herdledger.v1.LedgerService"

	// LedgerProtoFile is the path of the file descriptor describing LedgerService
	LedgerProtoFile = "herdledger/v1/ledger.proto"
)

// LedgerServiceServer is the server API for LedgerService.
// Every RPC takes and returns a google.protobuf.Struct carrying the JSON shapes of package dto.
type LedgerServiceServer interface {
	RecordMovement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordExits(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetExitDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PreviewSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateAllocation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLedger(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListExitCauses(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rpcFunc func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call rpcFunc) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullMethod returns the full RPC path of a LedgerService method
func FullMethod(method string) string {
	return "/" + LedgerServiceName + "/" + method
}

// LedgerServiceDesc is the grpc.ServiceDesc for LedgerService
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordMovement", Handler: unaryHandler("RecordMovement", LedgerServiceServer.RecordMovement)},
		{MethodName: "RecordExits", Handler: unaryHandler("RecordExits", LedgerServiceServer.RecordExits)},
		{MethodName: "GetExitDraft", Handler: unaryHandler("GetExitDraft", LedgerServiceServer.GetExitDraft)},
		{MethodName: "RecordSale", Handler: unaryHandler("RecordSale", LedgerServiceServer.RecordSale)},
		{MethodName: "PreviewSale", Handler: unaryHandler("PreviewSale", LedgerServiceServer.PreviewSale)},
		{MethodName: "ValidateAllocation", Handler: unaryHandler("ValidateAllocation", LedgerServiceServer.ValidateAllocation)},
		{MethodName: "GetLedger", Handler: unaryHandler("GetLedger", LedgerServiceServer.GetLedger)},
		{MethodName: "ListExitCauses", Handler: unaryHandler("ListExitCauses", LedgerServiceServer.ListExitCauses)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: LedgerProtoFile,
}

var (
	registerDescriptorOnce sync.Once
	registerDescriptorErr  error
)

// RegisterFileDescriptor adds the LedgerService descriptor to the global registry so
// server reflection can describe it. Every method takes and returns google.protobuf.Struct.
func RegisterFileDescriptor() error {
	registerDescriptorOnce.Do(func() {
		if _, err := protoregistry.GlobalFiles.FindFileByPath(LedgerProtoFile); err == nil {
			return
		}
		fd, err := protodesc.NewFile(ledgerFileDescriptor(), protoregistry.GlobalFiles)
		if err != nil {
			registerDescriptorErr = err
			return
		}
		registerDescriptorErr = protoregistry.GlobalFiles.RegisterFile(fd)
	})
	return registerDescriptorErr
}

func ledgerFileDescriptor() *descriptorpb.FileDescriptorProto {
	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())

	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(LedgerServiceDesc.Methods))
	for _, m := range LedgerServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		})
	}

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(LedgerProtoFile),
		Package:    proto.String("herdledger.v1"),
		Dependency: []string{structpb.File_google_protobuf_struct_proto.Path()},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("LedgerService"),
			Method: methods,
		}},
	}
}

// RegisterLedgerServiceServer registers srv on the gRPC server
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerServiceClient calls LedgerService over a client connection
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient creates a client on the given connection
func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

// Call invokes a LedgerService method by name
func (c *LedgerServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
