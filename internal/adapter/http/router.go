package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/retrobus-essonne/finance/internal/adapter/http/handler"
	"github.com/retrobus-essonne/finance/internal/adapter/http/middleware"
	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	ReportHandler      *handler.ReportHandler
	BalanceHandler     *handler.BalanceHandler
	DocumentHandler    *handler.DocumentHandler
	ScheduledHandler   *handler.ScheduledHandler
	HealthHandler      *handler.HealthHandler

	Logger zerolog.Logger

	// Optional collaborators; nil disables the matching middleware.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	TokenVerifier    middleware.TokenVerifier

	AllowedOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, middleware.IdempotencyReplayHeader},
		MaxAge:         300,
	}))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// viewer reads, treasurer writes, admin owns the balance.
	read := guard(cfg.TokenVerifier, domain.RoleViewer)
	write := guard(cfg.TokenVerifier, domain.RoleTreasurer)
	admin := guard(cfg.TokenVerifier, domain.RoleAdmin)

	api := func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
		}

		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}
	}

	r.Route("/finance", func(r chi.Router) {
		api(r)

		r.Route("/transactions", func(r chi.Router) {
			r.With(read).Get("/", cfg.TransactionHandler.List)
			r.With(write).Post("/", cfg.TransactionHandler.Create)
			r.With(read).Get("/{id}", cfg.TransactionHandler.Get)
			r.With(write).Put("/{id}", cfg.TransactionHandler.Update)
			r.With(write).Delete("/{id}", cfg.TransactionHandler.Delete)
		})

		r.With(read).Get("/categories", cfg.TransactionHandler.Categories)
		r.With(read).Get("/category-breakdown", cfg.ReportHandler.CategoryBreakdown)
		r.With(read).Get("/monthly-breakdown", cfg.ReportHandler.MonthlyBreakdown)

		r.With(read).Get("/balance", cfg.BalanceHandler.Get)
		r.With(admin).Put("/balance", cfg.BalanceHandler.Override)
		r.With(admin).Post("/balance/lock", cfg.BalanceHandler.Lock)
		r.With(read).Get("/consistency", cfg.BalanceHandler.Consistency)
	})

	r.Route("/api", func(r chi.Router) {
		api(r)

		r.Route("/finance/documents", func(r chi.Router) {
			r.With(read).Get("/", cfg.DocumentHandler.List)
			r.With(write).Post("/", cfg.DocumentHandler.Create)
			r.With(read).Get("/{id}", cfg.DocumentHandler.Get)
			r.With(write).Put("/{id}", cfg.DocumentHandler.Update)
			r.With(write).Delete("/{id}", cfg.DocumentHandler.Delete)
			r.With(write).Post("/{id}/status", cfg.DocumentHandler.ChangeStatus)
			r.With(write).Post("/{id}/payments", cfg.DocumentHandler.RecordPayment)
			r.With(write).Post("/{id}/convert", cfg.DocumentHandler.Convert)
			r.With(read).Post("/{id}/generate-pdf", cfg.DocumentHandler.GeneratePDF)
			r.With(read).Post("/{id}/preview", cfg.DocumentHandler.Preview)
		})

		r.Route("/scheduled-operations", func(r chi.Router) {
			r.With(read).Get("/", cfg.ScheduledHandler.List)
			r.With(write).Post("/", cfg.ScheduledHandler.Create)
			r.With(read).Get("/{id}", cfg.ScheduledHandler.Get)
			r.With(write).Put("/{id}", cfg.ScheduledHandler.Update)
			r.With(write).Delete("/{id}", cfg.ScheduledHandler.Delete)
			r.With(admin).Post("/{id}/approve", cfg.ScheduledHandler.Approve)
			r.With(admin).Post("/{id}/reject", cfg.ScheduledHandler.Reject)
			r.With(write).Post("/{id}/payment", cfg.ScheduledHandler.RecordPayment)
			r.With(read).Get("/{id}/payments", cfg.ScheduledHandler.Payments)
		})
	})

	return r
}

// guard enforces minRole only when authentication is configured.
func guard(verifier middleware.TokenVerifier, minRole domain.Role) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return middleware.RequireRole(minRole)
}
