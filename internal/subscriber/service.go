package subscriber

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mkazancev/brt-harness/internal/db"
)

// Service defines the operations exposed to handlers.
type Service interface {
	Reconcile(ctx context.Context, batch []Spec) (map[string]int64, error)
	Account(ctx context.Context, msisdn string) (Account, error)
	Balance(ctx context.Context, msisdn string) (decimal.Decimal, error)
	QuotaBalance(ctx context.Context, msisdn string, serviceType int) (int64, error)
}

type service struct {
	pool       *sql.DB
	reconciler *Reconciler
	checker    *Checker
}

// NewService creates a Service that runs each reconciliation in its own
// transaction on the pool.
func NewService(pool *sql.DB, log *slog.Logger) Service {
	return &service{
		pool:       pool,
		reconciler: NewReconciler(log),
		checker:    NewChecker(pool),
	}
}

func (s *service) Reconcile(ctx context.Context, batch []Spec) (map[string]int64, error) {
	session, err := db.NewSession(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	defer session.Rollback()

	return s.reconciler.Reconcile(ctx, session, batch)
}

func (s *service) Account(ctx context.Context, msisdn string) (Account, error) {
	return s.checker.Account(ctx, msisdn)
}

func (s *service) Balance(ctx context.Context, msisdn string) (decimal.Decimal, error) {
	return s.checker.Balance(ctx, msisdn)
}

func (s *service) QuotaBalance(ctx context.Context, msisdn string, serviceType int) (int64, error) {
	return s.checker.QuotaBalanceByMsisdn(ctx, msisdn, serviceType)
}
