package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Querier runs statements against either a pool or an open transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// TxFunc is the body of a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, q Querier) error

// Transactor runs a TxFunc atomically.
type Transactor interface {
	InTx(ctx context.Context, fn TxFunc) error
}

// TxRunner is the database/sql Transactor.
type TxRunner struct {
	conn *sql.DB
	opts *sql.TxOptions
}

// NewTxRunner returns a runner for conn. Postgres transactions run at
// REPEATABLE READ so a revision read and the upsert after it see one
// snapshot; SQLite serialises writers on its own.
func NewTxRunner(conn *sql.DB, dialect Dialect) *TxRunner {
	r := &TxRunner{conn: conn}
	if dialect == Postgres {
		r.opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	}
	return r
}

// Begin opens a transaction with the runner's options.
func (r *TxRunner) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.conn.BeginTx(ctx, r.opts)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return tx, nil
}

func (r *TxRunner) InTx(ctx context.Context, fn TxFunc) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	return Finish(ctx, tx, tx, fn)
}

// Finish runs fn with q, then commits tx, or rolls it back when fn fails or
// panics. q is normally tx itself; tests pass a wrapper around it.
func Finish(ctx context.Context, tx *sql.Tx, q Querier, fn TxFunc) error {
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, q); err != nil {
		done = true
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	done = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
