package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/repository"
)

// FailOnNthExecUoW is a test UoW that injects Err on the FailOn-th
// ExecContext call of each transaction. It lets rollback tests break a
// cascade at a precise write and check that nothing of it was committed.
//
// Exec calls are counted from 1; reads pass through uncounted. Execs reports
// how many writes the last transaction attempted, including the failing one.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error

	last atomic.Int32
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	wrapped := &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	defer func() { u.last.Store(wrapped.count.Load()) }()

	if fnErr := fn(ctx, wrapped); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

// Execs returns the number of ExecContext calls seen by the most recent
// transaction.
func (u *FailOnNthExecUoW) Execs() int32 {
	return u.last.Load()
}

// NewFailingTaskUoW wraps a FailOnNthExecUoW for services that take a
// repository.TaskUnitOfWork.
func NewFailingTaskUoW(database *sql.DB, failOn int32, err error) (repository.TaskUnitOfWork, *FailOnNthExecUoW) {
	inner := &FailOnNthExecUoW{DB: database, FailOn: failOn, Err: err}
	return repository.NewSQLiteTaskUnitOfWork(inner), inner
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n := f.count.Add(1)
	if n == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
