package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrobus-essonne/finance/internal/adapter/http/handler"
	"github.com/retrobus-essonne/finance/internal/adapter/repository/memory"
	postgresRepo "github.com/retrobus-essonne/finance/internal/adapter/repository/postgres"
	"github.com/retrobus-essonne/finance/internal/infrastructure/config"
	"github.com/retrobus-essonne/finance/internal/infrastructure/postgres"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// storage is the set of repositories behind the use cases.
type storage struct {
	txManager    usecase.TransactionManager
	retrier      usecase.Retrier
	transactions usecase.TransactionRepository
	categories   usecase.CategoryRepository
	documents    usecase.DocumentRepository
	operations   usecase.ScheduledOperationRepository
	balance      usecase.BalanceRepository
	outbox       usecase.OutboxRepository
	audit        usecase.AuditRepository

	checks map[string]handler.Pinger
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	var (
		s   *storage
		err error
	)

	if cfg.UsesMemoryStore() {
		log.Warn().Msg("DATABASE_URL is not set, using the in-memory store")
		s = newMemoryStorage(cfg.SeedFixture, time.Now())
	} else if s, err = newPostgresStorage(ctx, cfg); err != nil {
		return nil, err
	}

	if !cfg.OutboxEnabled {
		s.outbox = postgresRepo.NewNullOutboxRepository()
	}

	return s, nil
}

func newMemoryStorage(seed bool, now time.Time) *storage {
	store := memory.NewStore()
	if seed {
		store.SeedFixture(now)
	}

	return &storage{
		txManager:    store,
		transactions: store.Transactions(),
		categories:   store.Categories(),
		documents:    store.Documents(),
		operations:   store.ScheduledOperations(),
		balance:      store.Balance(),
		outbox:       store.Outbox(),
		audit:        store.Audit(),
		checks:       map[string]handler.Pinger{},
		close:        func() {},
	}
}

func newPostgresStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	s := &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		retrier:      postgresRepo.NewRetrier(),
		transactions: postgresRepo.NewTransactionRepository(pool),
		categories:   postgresRepo.NewCategoryRepository(pool),
		documents:    postgresRepo.NewDocumentRepository(pool),
		operations:   postgresRepo.NewScheduledOperationRepository(pool),
		balance:      postgresRepo.NewBalanceRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
		audit:        postgresRepo.NewAuditRepository(pool),
		checks:       map[string]handler.Pinger{"postgres": pool},
		close:        pool.Close,
	}

	return s, nil
}
