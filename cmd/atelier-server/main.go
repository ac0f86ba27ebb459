package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"atelier/backend/internal/config"
	"atelier/backend/internal/service/projects"
	"atelier/backend/internal/store"
	"atelier/backend/internal/store/cache"
	"atelier/backend/internal/store/postgres"
	"atelier/backend/internal/telemetry"
	grpcTransport "atelier/backend/internal/transport/grpc"
)

const serviceName = "atelier-server"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("grpc_addr", cfg.GRPCAddr()), slog.String("log_level", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("telemetry setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		SlowQuery:       cfg.DBSlowQuery,
		Logger:          log,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	var schedules store.ScheduleRepository = postgres.NewScheduleRepo(db)
	if cfg.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		// An unreachable redis only costs cache hits, so startup continues.
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
		}
		schedules = cache.NewScheduleCache(schedules, rdb, cache.Options{TTL: cfg.ScheduleTTL}, log)
		log.Info("schedule cache enabled", slog.String("redis_addr", cfg.RedisAddr), slog.Duration("ttl", cfg.ScheduleTTL))
	}

	defaultLoc, err := time.LoadLocation(cfg.DefaultTimeZone)
	if err != nil {
		log.Error("default time zone invalid", slog.Any("err", err), slog.String("time_zone", cfg.DefaultTimeZone))
		os.Exit(1)
	}

	svc := projects.NewService(schedules, postgres.NewAppointmentRepo(db), projects.Options{
		DefaultLocation: defaultLoc,
		Logger:          log,
	})

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcTransport.RateLimitInterceptor(cfg.RateLimitRPS, cfg.RateLimitBurst, log),
			grpcTransport.DefaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
		),
	)
	grpcTransport.RegisterProjectsServiceServer(grpcServer, grpcTransport.NewProjectsServer(svc, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	if host == "" {
		host = "unknown"
	}
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
