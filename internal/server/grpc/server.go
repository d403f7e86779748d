// Package grpc exposes the assistant over gRPC. Messages are
// google.protobuf.Struct values shaped like the HTTP JSON bodies.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified assistant service name.
	ServiceName = "campus.assistant.v1.Assistant"

	queryMethod = "/" + ServiceName + "/Query"
)

// Router answers questions. It never fails.
type Router interface {
	Route(ctx context.Context, text, role string) string
}

// AssistantServer is the server API of the assistant service.
type AssistantServer interface {
	Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type assistantServer struct {
	router Router
}

// Query answers {query, role} with {answer}.
func (s *assistantServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	query, ok := stringField(in, "query")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}
	role, ok := stringField(in, "role")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "role is required")
	}

	answer := s.router.Route(ctx, query, role)

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{"answer": structpb.NewStringValue(answer)},
	}, nil
}

func stringField(in *structpb.Struct, key string) (string, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", false
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return s.StringValue, true
}

func queryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).Query(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: queryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).Query(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Query", Handler: queryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campus/assistant/v1/assistant.proto",
}

// NewServer creates a gRPC server with the assistant, health and reflection
// services. A nil h serves a health status with no dependencies.
func NewServer(router Router, h *Health, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(logUnary)}, opts...)
	s := grpc.NewServer(opts...)

	s.RegisterService(&serviceDesc, &assistantServer{router: router})

	if h == nil {
		h = NewHealth(nil)
	}
	healthpb.RegisterHealthServer(s, h.hs)

	reflection.Register(s)

	return s
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("gRPC request", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
