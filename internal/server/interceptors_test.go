package server

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/kingdom.Tables/List"}

func TestRecoveryInterceptor(t *testing.T) {
	ic := RecoveryInterceptor(zaptest.NewLogger(t))

	_, err := ic(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := ic(context.Background(), "req", testInfo, func(ctx context.Context, req any) (any, error) {
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	ic := LoggingInterceptor(zaptest.NewLogger(t))
	want := status.Error(codes.NotFound, "missing")

	_, err := ic(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		return nil, want
	})
	assert.Equal(t, want, err)
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var order []string
	mark := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			order = append(order, name+">")
			resp, err := handler(ctx, req)
			order = append(order, "<"+name)
			return resp, err
		}
	}

	chain := ChainUnaryInterceptors(mark("a"), mark("b"))
	resp, err := chain(context.Background(), 1, testInfo, func(ctx context.Context, req any) (any, error) {
		order = append(order, "handler")
		return req.(int) + 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp)
	assert.Equal(t, []string{"a>", "b>", "handler", "<b", "<a"}, order)
}

func TestChainWithRecoveryOutermost(t *testing.T) {
	logger := zaptest.NewLogger(t)
	chain := ChainUnaryInterceptors(RecoveryInterceptor(logger), LoggingInterceptor(logger))
	_, err := chain(context.Background(), nil, testInfo, func(ctx context.Context, req any) (any, error) {
		panic(errors.New("bad"))
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestHealthService(t *testing.T) {
	logger := zaptest.NewLogger(t)
	srv := grpc.NewServer(grpc.UnaryInterceptor(ChainUnaryInterceptors(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
	)))
	hs := RegisterHealth(srv)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: GameServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	hs.Shutdown()
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: GameServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
