package testutil

import (
	"context"
	"database/sql"

	"github.com/alexanderramin/handbook/internal/db"
)

// FaultyTx is a db.Transactor whose Nth ExecContext inside a transaction
// fails with Err. Counting starts at 1 per transaction; reads are not
// counted.
type FaultyTx struct {
	Runner *db.TxRunner
	FailAt int
	Err    error
}

func (f *FaultyTx) InTx(ctx context.Context, fn db.TxFunc) error {
	tx, err := f.Runner.Begin(ctx)
	if err != nil {
		return err
	}
	return db.Finish(ctx, tx, &faultyQuerier{Querier: tx, failAt: f.FailAt, err: f.Err}, fn)
}

type faultyQuerier struct {
	db.Querier
	execs  int
	failAt int
	err    error
}

func (q *faultyQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q.execs++
	if q.execs == q.failAt {
		return nil, q.err
	}
	return q.Querier.ExecContext(ctx, query, args...)
}
