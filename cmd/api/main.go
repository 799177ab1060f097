package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"salon/internal/api"
	"salon/internal/config"
	"salon/internal/database"
	"salon/internal/domain"
	"salon/internal/events"
	"salon/internal/logging"
	"salon/internal/metrics"
	"salon/internal/permissions"
	"salon/internal/repository"
	"salon/internal/service"
	"salon/internal/session"
	"salon/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, baseLogger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	catalog := service.NewCatalogService(db, baseLogger)
	if err := catalog.Seed(ctx, cfg.Services); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	admins := service.NewAdminService(db, baseLogger)
	if err := admins.Seed(ctx, cfg.Admins); err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	var wg sync.WaitGroup
	bus := events.NewEventBus(baseLogger)
	bus.Subscribe(events.EventBookingRequested, events.LogBookingEvents(baseLogger))
	bus.Subscribe(events.EventBookingStatusChanged, events.LogBookingEvents(baseLogger))
	if redisClient != nil {
		relay := worker.NewEventRelay(redisClient, worker.RetryPolicy{
			MaxRetries:    5,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2,
		}, baseLogger)
		bus.Subscribe(events.EventBookingRequested, relay.Handle)
		bus.Subscribe(events.EventBookingStatusChanged, relay.Handle)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Start(ctx)
		}()
	}

	availability, err := service.NewAvailabilityService(db, db, cfg.Business, baseLogger)
	if err != nil {
		return fmt.Errorf("init availability: %w", err)
	}

	sessions := session.NewManager(
		newSessionStore(cfg, redisClient, baseLogger),
		session.NewAccountAuthenticator(db),
		cfg.Session.IdleTimeout(),
		baseLogger,
		metrics.IncSessionExpired,
	)
	defer sessions.Close()

	deps := api.Dependencies{
		Catalog:      catalog,
		Availability: availability,
		Bookings:     service.NewBookingService(db, availability, bus, baseLogger),
		Admins:       admins,
		Sessions:     sessions,
		Permissions:  permissions.NewResolver(service.NewAccountStore(db), baseLogger, metrics.IncPermissionFallback),
		DB:           db,
	}
	httpServer := api.NewHTTPServer(cfg.API, deps, baseLogger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, db, baseLogger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	backup := database.NewBackupService(db, cfg.Backup, baseLogger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		backup.Start(ctx)
	}()

	startMetrics(ctx, cfg, &logger)

	err = startServers(ctx, grpcServer, httpServer, cfg, &logger)
	stop()
	wg.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, closer, nil
}

// initRedis returns nil when Redis is not configured or stays unreachable;
// sessions then live in memory and events are not relayed.
func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	policy := worker.RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}
	err := policy.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return repository.Ping(pingCtx, client)
	})
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(client)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func newSessionStore(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	idle := cfg.Session.IdleTimeout()
	memory := repository.NewMemorySessionStore(idle)
	if client == nil {
		return memory
	}
	return repository.NewFailoverSessionStore(repository.NewRedisSessionStore(client, idle), memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(ctx); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("salon API started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("salon API stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
