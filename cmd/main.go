package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pruebaingsoft/todos-service/config"
	"github.com/pruebaingsoft/todos-service/internal/audit"
	"github.com/pruebaingsoft/todos-service/internal/cache"
	"github.com/pruebaingsoft/todos-service/internal/circuitbreaker"
	"github.com/pruebaingsoft/todos-service/internal/gateway"
	"github.com/pruebaingsoft/todos-service/internal/handler"
	"github.com/pruebaingsoft/todos-service/internal/httpserver"
	"github.com/pruebaingsoft/todos-service/internal/metrics"
	"github.com/pruebaingsoft/todos-service/internal/store"
	"github.com/pruebaingsoft/todos-service/internal/todo"
	"github.com/pruebaingsoft/todos-service/pkg/logger"
)

const metricsBufferSize = 1000

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
	defer redisClient.Close()

	metricsCollector := metrics.NewCollector(metricsBufferSize, log)
	metricsCollector.Start(ctx)

	registry := circuitbreaker.NewRegistry(breakerOptions(cfg), breakerHooks(log, metricsCollector))

	usersGateway, authGateway := initializeGateways(cfg, registry, log, metricsCollector)

	cacheStore := cache.NewStore(redisClient, log, metricsCollector)
	auditor := audit.NewPublisher(redisClient, cfg.Redis.AuditChannel, log)

	service := todo.NewService(
		cacheStore,
		store.NewMemory(),
		usersGateway,
		auditor,
		log,
		config.MustDuration(cfg.Cache.CollectionTTL),
	)

	todoHandler := handler.NewTodoHandler(log, service, registry,
		[]*gateway.Gateway{usersGateway, authGateway}, metricsCollector)

	mux := setupRouter(todoHandler, metricsCollector)

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("todos service listening",
		slog.String("addr", cfg.Server.Address),
		slog.String("environment", cfg.Server.Environment))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func breakerOptions(cfg *config.Config) circuitbreaker.Options {
	return circuitbreaker.Options{
		VolumeThreshold:       cfg.Breaker.VolumeThreshold,
		ErrorThresholdPercent: cfg.Breaker.ErrorThresholdPercent,
		ResetTimeout:          config.MustDuration(cfg.Breaker.ResetTimeout),
		RollingWindow:         config.MustDuration(cfg.Breaker.RollingWindow),
		RollingBuckets:        cfg.Breaker.RollingBuckets,
		CallTimeout:           config.MustDuration(cfg.Breaker.CallTimeout),
	}
}

func breakerHooks(log *slog.Logger, collector *metrics.Collector) circuitbreaker.Hooks {
	stateChange := func(name, state string) {
		log.Warn("breaker state changed",
			slog.String("breaker", name),
			slog.String("state", state))
		collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventBreakerStateChange,
			Dependency: name,
			State:      state,
		})
	}

	return circuitbreaker.Hooks{
		OnOpen:     func(name string) { stateChange(name, circuitbreaker.StateOpen.String()) },
		OnHalfOpen: func(name string) { stateChange(name, circuitbreaker.StateHalfOpen.String()) },
		OnClose:    func(name string) { stateChange(name, circuitbreaker.StateClosed.String()) },
		OnFailure: func(name string, err error) {
			log.Debug("dependency call failed",
				slog.String("breaker", name),
				slog.String("error", err.Error()))
		},
	}
}

func initializeGateways(cfg *config.Config, registry *circuitbreaker.Registry, log *slog.Logger, collector *metrics.Collector) (*gateway.Gateway, *gateway.Gateway) {
	timeout := config.MustDuration(cfg.Dependencies.Timeout)

	usersClient := gateway.NewUserClient(cfg.Dependencies.UsersURL, timeout)
	usersGateway := gateway.New("users-api", registry, usersClient.Fetch,
		gateway.UserFallback, log, collector)

	authClient := gateway.NewAuthClient(cfg.Dependencies.AuthURL, timeout)
	authGateway := gateway.New("auth-api", registry, authClient.Verify,
		gateway.AuthFallback, log, collector)

	return usersGateway, authGateway
}
