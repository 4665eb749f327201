package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/retrobus-essonne/finance/internal/adapter/http"
	"github.com/retrobus-essonne/finance/internal/adapter/http/handler"
	"github.com/retrobus-essonne/finance/internal/adapter/http/middleware"
	"github.com/retrobus-essonne/finance/internal/adapter/renderer"
	postgresRepo "github.com/retrobus-essonne/finance/internal/adapter/repository/postgres"
	redisRepo "github.com/retrobus-essonne/finance/internal/adapter/repository/redis"
	"github.com/retrobus-essonne/finance/internal/infrastructure/auth"
	"github.com/retrobus-essonne/finance/internal/infrastructure/config"
	"github.com/retrobus-essonne/finance/internal/infrastructure/eventpublisher"
	"github.com/retrobus-essonne/finance/internal/infrastructure/logger"
	"github.com/retrobus-essonne/finance/internal/infrastructure/metrics"
	"github.com/retrobus-essonne/finance/internal/infrastructure/redis"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

const (
	serviceName        = "retrobus-finance"
	tokenDuration      = 12 * time.Hour
	rateLimiterCleanup = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: serviceName})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	m := metrics.New()

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		store.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		l.Info().Msg("connected to redis")
	}

	app := newApp(cfg, store, redisClient, m, l)

	if cfg.OutboxEnabled {
		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  eventPublisher(redisClient, cfg.EventChannel, l),
			Logger:     &l,
			Published:  m.EventsPublished,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		go worker.Start(ctx)
	}

	if app.rateLimiter != nil {
		go app.rateLimiter.RunCleanup(ctx, rateLimiterCleanup)
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      app.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("port", cfg.HTTPPort).Bool("memory_store", cfg.UsesMemoryStore()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	l.Info().Msg("server stopped")
	return nil
}

type app struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// newApp wires use cases and handlers over store. redisClient and m may be nil.
func newApp(cfg *config.Config, store *storage, redisClient *goredis.Client, m *metrics.Metrics, l zerolog.Logger) *app {
	idGen := postgresRepo.NewULIDGenerator()

	transactionUC := usecase.NewTransactionUseCase(store.txManager, store.retrier, store.transactions, store.categories, store.balance, store.outbox, store.audit, idGen, m)
	documentUC := usecase.NewDocumentUseCase(store.txManager, store.retrier, store.documents, store.outbox, store.audit, idGen, m)
	scheduledUC := usecase.NewScheduledOperationUseCase(store.txManager, store.retrier, store.operations, store.transactions, store.categories, store.balance, store.outbox, store.audit, idGen, m)
	balanceUC := usecase.NewBalanceUseCase(store.txManager, store.retrier, store.balance, store.outbox, store.audit, idGen, m)
	reportUC := usecase.NewReportUseCase(store.transactions)
	reconciliationUC := usecase.NewReconciliationUseCase(store.txManager, store.balance, store.transactions, store.documents, m)

	pdfRenderer := renderer.NewClient(renderer.Config{
		URL:        cfg.RendererURL,
		Timeout:    cfg.RenderTimeout,
		MaxRetries: cfg.RenderRetries,
	})

	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if redisClient != nil {
		cache = redisRepo.NewCache(redisClient, "finance:pdf:")
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	renderBudget := pdfRenderer.Budget()
	if renderBudget > cfg.HTTPWriteTimeout {
		l.Warn().
			Dur("render_budget", renderBudget).
			Dur("write_timeout", cfg.HTTPWriteTimeout).
			Msg("render retries may outlast the HTTP write timeout")
	}

	renderUC := usecase.NewRenderUseCase(store.documents, pdfRenderer, cache, renderBudget, m)
	renderUC.SetCacheTTL(cfg.RenderCacheTTL)

	routerCfg := httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		ReportHandler:      handler.NewReportHandler(reportUC),
		BalanceHandler:     handler.NewBalanceHandler(balanceUC, reconciliationUC),
		DocumentHandler:    handler.NewDocumentHandler(documentUC, renderUC),
		ScheduledHandler:   handler.NewScheduledHandler(scheduledUC),
		HealthHandler:      handler.NewHealthHandler(store.checks),
		Logger:             l,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		var hits *prometheus.CounterVec
		if m != nil {
			hits = m.RateLimitHits
		}
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, hits)
		routerCfg.RateLimiter = rateLimiter
	}

	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, tokenDuration)
	}

	return &app{handler: httpAdapter.NewRouter(routerCfg), rateLimiter: rateLimiter}
}

// eventPublisher fans outbox events out over Redis pub/sub, or logs them
// when Redis is not configured.
func eventPublisher(client *goredis.Client, channel string, l zerolog.Logger) eventpublisher.Publisher {
	if client == nil {
		return eventpublisher.NewLogPublisher(l)
	}

	return redisRepo.NewPublisher(client, channel)
}
