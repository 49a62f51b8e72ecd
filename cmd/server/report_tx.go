package main

import (
	"context"
	"database/sql"
	"time"

	reportservice "dugout/internal/report/service"
	reportstore "dugout/internal/report/store"
	dErrors "dugout/pkg/domain-errors"
)

const defaultReportTxTimeout = 5 * time.Second

// reportPostgresTx runs the version-creation sequence inside a database
// transaction so the row lock taken by FindCurrentForUpdate holds until
// commit.
type reportPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newReportPostgresTx(db *sql.DB) *reportPostgresTx {
	return &reportPostgresTx{db: db}
}

func (t *reportPostgresTx) RunInTx(ctx context.Context, fn func(store reportservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultReportTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(reportstore.NewPostgresTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
