package api

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"salon/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type fakePinger struct {
	down atomic.Bool
}

func (p *fakePinger) PingContext(context.Context) error {
	if p.down.Load() {
		return errors.New("database is down")
	}
	return nil
}

func startGRPC(t *testing.T, db Pinger) (*GRPCServer, healthpb.HealthClient) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := newGRPCServer(config.APIConfig{}, db, lis, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	})

	conn, err := grpc.NewClient(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return srv, healthpb.NewHealthClient(conn)
}

func TestGRPCHealthFollowsDatabase(t *testing.T) {
	db := &fakePinger{}
	srv, client := startGRPC(t, db)

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	db.down.Store(true)
	srv.probe(context.Background())

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var calls []string
	mk := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			calls = append(calls, name)
			return handler(ctx, req)
		}
	}

	chain := ChainUnaryInterceptors(mk("first"), mk("second"))
	resp, err := chain(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, func(_ context.Context, req any) (any, error) {
		calls = append(calls, "handler")
		return req, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	assert.Equal(t, []string{"first", "second", "handler"}, calls)
}

func TestRateLimitUnaryInterceptor(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 1})
	interceptor := RateLimitUnaryInterceptor(l)

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 5000}})
	handler := func(context.Context, any) (any, error) { return "ok", nil }

	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, handler)
	require.NoError(t, err)

	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{}, handler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// a different peer has its own bucket
	other := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("10.0.0.2"), Port: 5000}})
	_, err = interceptor(other, nil, &grpc.UnaryServerInfo{}, handler)
	assert.NoError(t, err)
}

func TestRequestIDFromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDMetadataKey, "abc"))
	assert.Equal(t, "abc", requestIDFromMetadata(ctx))

	generated := requestIDFromMetadata(context.Background())
	assert.Len(t, generated, 36)
}
