package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-rate-limiter/internal/config"
	"portfolio-rate-limiter/internal/handler"
	"portfolio-rate-limiter/internal/limiter"
	"portfolio-rate-limiter/internal/logging"
	"portfolio-rate-limiter/internal/metrics"
	"portfolio-rate-limiter/internal/server"
	"portfolio-rate-limiter/internal/sweeper"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

// @title Portfolio Rate Limiter API
// @version 1.0
// @description Rate limiting de janela fixa para os endpoints públicos do portfólio

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	routes, err := config.LoadRoutePolicies(cfg.RateLimit.RoutesFile)
	if err != nil {
		return fmt.Errorf("failed to load route policies: %w", err)
	}

	prom := metrics.NewPrometheus()

	store, memoryStore, pinger := buildStore(cfg, prom, logger)

	failurePolicy := limiter.FailOpen
	if cfg.RateLimit.FailureMode == config.FailureClosed {
		failurePolicy = limiter.FailClosed
	}

	rateLimiter := limiter.NewRateLimiter(store,
		limiter.WithMetrics(prom),
		limiter.WithLogger(logger),
		limiter.WithFailurePolicy(failurePolicy))

	var sw *sweeper.Sweeper
	if memoryStore != nil {
		sw = sweeper.New(memoryStore, cfg.RateLimit.GetSweepInterval(),
			sweeper.WithMetrics(prom),
			sweeper.WithLogger(logger))
		if err := sw.Start(); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
	}

	router, err := server.NewRouter(server.Deps{
		Limiter:        rateLimiter,
		Clock:          limiter.SystemClock{},
		Routes:         routes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminPassword:  cfg.Admin.Password,
		Health:         handler.NewHealthHandler(pinger, logger),
		Metrics:        prom.Handler(),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("environment", cfg.Server.AppEnv),
			slog.String("store", cfg.RateLimit.Store),
			slog.String("failure_mode", cfg.RateLimit.FailureMode),
			slog.String("swagger", "http://localhost:"+cfg.Server.Port+"/swagger/index.html"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
		if sw != nil {
			if err := sw.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("sweeper stop: %w", err))
			}
		}
		if err := rateLimiter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing rate limit store: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}

// buildStore monta o armazenamento conforme RATE_LIMIT_STORE e RATE_LIMIT_FAILURE_MODE.
// Retorna também o MemoryStore a ser varrido (nil se não houver) e o Pinger do Redis (nil em memória).
func buildStore(cfg *config.Config, prom *metrics.Prometheus, logger *slog.Logger) (limiter.Store, *limiter.MemoryStore, handler.Pinger) {
	if cfg.RateLimit.Store == config.StoreMemory {
		memoryStore := limiter.NewMemoryStore()
		return memoryStore, memoryStore, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisStore := limiter.NewRedisStore(redisClient,
		limiter.WithKeyPrefix(cfg.Redis.KeyPrefix),
		limiter.WithTimeout(cfg.Redis.GetTimeout()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisStore.Ping(ctx); err != nil {
		// A indisponibilidade é tratada pela política de falha; não impede a subida
		logger.Warn("redis unreachable at startup",
			slog.String("addr", cfg.Redis.GetRedisAddr()),
			slog.Any("error", err))
	}

	if cfg.RateLimit.FailureMode != config.FailureFallback {
		return redisStore, nil, redisStore
	}

	memoryStore := limiter.NewMemoryStore()
	fallback := limiter.NewFallbackStore(redisStore, memoryStore, limiter.DefaultBreakerConfig(), prom, logger)
	return fallback, memoryStore, redisStore
}
