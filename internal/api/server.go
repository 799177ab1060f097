package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"salon/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	healthProbeInterval = 10 * time.Second
	healthProbeTimeout  = 2 * time.Second
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GRPCServer serves the standard gRPC health service. Its status follows
// the database: SERVING while it answers pings, NOT_SERVING otherwise.
type GRPCServer struct {
	cfg      config.APIConfig
	db       Pinger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	log      zerolog.Logger
}

func NewGRPCServer(cfg config.APIConfig, db Pinger, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return newGRPCServer(cfg, db, lis, logger), nil
}

func newGRPCServer(cfg config.APIConfig, db Pinger, lis net.Listener, logger *zerolog.Logger) *GRPCServer {
	unary := ChainUnaryInterceptors(
		LoggingUnaryInterceptor(logger),
		RateLimitUnaryInterceptor(newRateLimiter(cfg.RateLimit)),
	)

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(unary))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	return &GRPCServer{
		cfg:      cfg,
		db:       db,
		server:   grpcServer,
		health:   hs,
		listener: lis,
		log:      serverLogger,
	}
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve blocks serving requests while a background probe keeps the health
// status in sync with the database until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context) error {
	s.probe(ctx)
	go s.watchHealth(ctx)

	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	return s.server.Serve(s.listener)
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *GRPCServer) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.log.Warn().Err(err).Msg("database ping failed")
	}
	s.health.SetServingStatus("", status)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	case <-time.After(10 * time.Second):
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
		return
	}
}
