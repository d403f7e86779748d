package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type echoRouter struct{}

func (echoRouter) Route(_ context.Context, text, role string) string {
	return role + ": " + text
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func dial(t *testing.T, h *Health) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(echoRouter{}, h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestQuery(t *testing.T) {
	conn := dial(t, nil)

	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"query": structpb.NewStringValue("who is IT001"),
		"role":  structpb.NewStringValue("student"),
	}}
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), queryMethod, in, out))
	assert.Equal(t, "student: who is IT001", out.GetFields()["answer"].GetStringValue())
}

func TestQuery_MissingFields(t *testing.T) {
	conn := dial(t, nil)

	in := &structpb.Struct{Fields: map[string]*structpb.Value{"query": structpb.NewStringValue("hi")}}
	err := conn.Invoke(context.Background(), queryMethod, in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	in = &structpb.Struct{Fields: map[string]*structpb.Value{
		"query": structpb.NewNumberValue(1),
		"role":  structpb.NewStringValue("student"),
	}}
	err = conn.Invoke(context.Background(), queryMethod, in, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dial(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestHealth_FollowsDependencies(t *testing.T) {
	db := &fakePinger{}
	cache := &fakePinger{err: errors.New("connection refused")}
	h := NewHealth(map[string]Pinger{"database": db, "cache": cache})
	client := healthpb.NewHealthClient(dial(t, h))

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.False(t, h.Check(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())

	cache.err = nil
	assert.True(t, h.Check(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check())
}
