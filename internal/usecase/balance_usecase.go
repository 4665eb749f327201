package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/infrastructure/metrics"
)

// BalanceUseCase handles reads and manual corrections of the running balance.
type BalanceUseCase struct {
	txRunner
	balanceRepo BalanceRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(
	txManager TransactionManager,
	retrier Retrier,
	balanceRepo BalanceRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *BalanceUseCase {
	return &BalanceUseCase{
		txRunner:    txRunner{txManager: txManager, retrier: retrier},
		balanceRepo: balanceRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// OverrideBalanceInput represents a manual balance correction.
type OverrideBalanceInput struct {
	Amount decimal.Decimal
	Reason string
}

// GetBalance returns the current running balance.
func (uc *BalanceUseCase) GetBalance(ctx context.Context) (*domain.Balance, error) {
	balance, err := uc.balanceRepo.Get(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	if uc.metrics != nil {
		uc.metrics.Balance.Set(balance.Amount.InexactFloat64())
	}

	return balance, nil
}

// OverrideBalance forces the balance to a given amount. The opening amount
// absorbs the difference. Refused while the balance is locked.
func (uc *BalanceUseCase) OverrideBalance(ctx context.Context, input OverrideBalanceInput) (*domain.Balance, error) {
	reason := strings.TrimSpace(input.Reason)
	if err := domain.ValidateRequired("reason", reason, domain.MaxDescriptionLength); err != nil {
		return nil, err
	}

	var updated *domain.Balance

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		balance, err := uc.balanceRepo.GetForUpdate(ctx, tx)
		if err != nil {
			return err
		}

		before := *balance

		if err := balance.Override(input.Amount); err != nil {
			return err
		}

		balance.Version++
		balance.UpdatedAt = time.Now().UTC()

		if err := uc.balanceRepo.Save(ctx, tx, balance); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionBalanceOverride, domain.AggregateTypeBalance, "balance",
				map[string]any{"amount": before.Amount.String(), "opening": before.Opening.String()},
				map[string]any{"amount": balance.Amount.String(), "opening": balance.Opening.String(), "reason": reason})
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		if uc.outboxRepo != nil {
			event := newEvent(uc.idGen, domain.AggregateTypeBalance, "balance", domain.EventTypeBalanceOverridden, map[string]any{
				"previous": before.Amount.String(),
				"amount":   balance.Amount.String(),
				"reason":   reason,
			})
			if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
				return err
			}
		}

		updated = balance

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BalanceOverrides.Inc()
		uc.metrics.Balance.Set(updated.Amount.InexactFloat64())
	}

	return updated, nil
}

// SetLocked locks or unlocks manual overrides.
func (uc *BalanceUseCase) SetLocked(ctx context.Context, locked bool) (*domain.Balance, error) {
	var updated *domain.Balance

	err := uc.run(ctx, func(ctx context.Context, tx Transaction) error {
		balance, err := uc.balanceRepo.GetForUpdate(ctx, tx)
		if err != nil {
			return err
		}

		if balance.Locked == locked {
			updated = balance
			return nil
		}

		before := balance.Locked
		balance.Locked = locked
		balance.Version++
		balance.UpdatedAt = time.Now().UTC()

		if err := uc.balanceRepo.Save(ctx, tx, balance); err != nil {
			return err
		}

		if uc.auditRepo != nil {
			entry := newAudit(ctx, uc.idGen, domain.AuditActionBalanceLock, domain.AggregateTypeBalance, "balance",
				map[string]any{"locked": before},
				map[string]any{"locked": locked})
			if err := uc.auditRepo.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
		}

		updated = balance

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
