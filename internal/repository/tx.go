package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "matinee/internal/errors"
	"matinee/internal/database"
)

// Postgres error codes that mark a transaction worth retrying.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
)

// TxRunner executes a function inside a transaction with a bounded
// lock wait. Lock timeouts and serialization failures are retried up
// to the configured budget, then surfaced as ErrTransient.
type TxRunner struct {
	db          *database.DB
	lockTimeout time.Duration
	retries     int
}

func NewTxRunner(db *database.DB, lockTimeout time.Duration, retries int) *TxRunner {
	return &TxRunner{db: db, lockTimeout: lockTimeout, retries: retries}
}

func (t *TxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		err := t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrTransient, lastErr)
}

func (t *TxRunner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// SET LOCAL scopes the timeout to this transaction. The value
	// cannot be bound as a parameter, it comes from config only.
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgLockNotAvailable || pqErr.Code == pgSerializationFailure
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
