package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxSession is a single database transaction handed to the reconciler.
// The caller opens it and the reconciler decides commit vs. rollback;
// after either, the session reports itself closed.
type TxSession struct {
	tx   *sql.Tx
	done bool
}

// NewSession starts a transaction on the pool and wraps it.
func NewSession(ctx context.Context, database *sql.DB) (*TxSession, error) {
	if database == nil {
		return nil, fmt.Errorf("nil database handle")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &TxSession{tx: tx}, nil
}

func (s *TxSession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

func (s *TxSession) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

func (s *TxSession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

// Commit ends the transaction and marks the session closed.
func (s *TxSession) Commit() error {
	if s.done {
		return sql.ErrTxDone
	}
	s.done = true
	return s.tx.Commit()
}

// Rollback ends the transaction and marks the session closed. Rolling back
// an already finished session is a no-op, so deferred rollbacks are safe.
func (s *TxSession) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Rollback()
}

// Closed reports whether the transaction has already been finished.
func (s *TxSession) Closed() bool {
	return s.done
}
