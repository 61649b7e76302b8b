package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTxTimeout marks a transaction aborted by one of its time bounds
// (connection wait or total execution). Safe to retry: nothing committed.
var ErrTxTimeout = errors.New("transaction timed out")

// Limits bounds a transaction: MaxWait caps the queue time to acquire a
// connection from the pool, Timeout caps total execution including commit.
type Limits struct {
	MaxWait time.Duration
	Timeout time.Duration
}

// RunInTx acquires a connection within lim.MaxWait, then runs fn inside a
// transaction that must finish within lim.Timeout. Any error from fn (or
// either deadline) rolls everything back.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, lim Limits, fn func(ctx context.Context, tx pgx.Tx) error) error {
	acqCtx, cancelAcq := context.WithTimeout(ctx, lim.MaxWait)
	defer cancelAcq()

	conn, err := pool.Acquire(acqCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: waiting for connection", ErrTxTimeout)
		}
		return err
	}
	defer conn.Release()

	execCtx, cancelExec := context.WithTimeout(ctx, lim.Timeout)
	defer cancelExec()

	tx, err := conn.BeginTx(execCtx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(execCtx) }()

	if err := fn(execCtx, tx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTxTimeout, err)
		}
		return err
	}
	if err := tx.Commit(execCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: commit", ErrTxTimeout)
		}
		return err
	}
	return nil
}
