package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
)

const (
	defaultMaxRetries = 5
	baseBackoff       = 10 * time.Millisecond
)

var (
	// ErrBeginTx is returned when a transaction cannot be opened.
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommitTx is returned when a transaction cannot be committed.
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")

	// ErrRetriesExhausted is returned when a serializable transaction keeps conflicting.
	ErrRetriesExhausted = errors.New("txmanager: serialization retries exhausted")
)

// TxBeginner is implemented by *dbmetrics.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// RetryObserver is notified of every retried transaction.
type RetryObserver interface {
	IncTxRetry(isolation string)
}

type retryMarker interface {
	Retryable() bool
}

// Manager runs functions inside transactions kept in the context.
// A nested call joins the outer transaction.
type Manager struct {
	db         TxBeginner
	maxRetries int
	observer   RetryObserver
}

// Option configures Manager.
type Option func(*Manager)

// WithMaxRetries sets how many times a serialization failure is retried.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		m.maxRetries = n
	}
}

// WithRetryObserver reports retries, usually to Prometheus.
func WithRetryObserver(o RetryObserver) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

func NewTransactionManager(db TxBeginner, opts ...Option) *Manager {
	m := &Manager{db: db, maxRetries: defaultMaxRetries}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do runs fn in a READ COMMITTED transaction. It is never retried.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, "read_committed", fn)
}

// DoSerializable runs fn in a SERIALIZABLE transaction, retrying it from
// scratch on serialization failures. fn must be safe to re-run.
func (m *Manager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, "serializable", fn)
}

// DoReadOnly runs fn in a read-only REPEATABLE READ transaction.
func (m *Manager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, "read_only", fn)
}

func (m *Manager) run(ctx context.Context, opts *sql.TxOptions, isolation string, fn func(ctx context.Context) error) error {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			if m.observer != nil {
				m.observer.IncTxRetry(isolation)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(baseBackoff * time.Duration(attempt)):
			}
		}

		retry, err := m.attempt(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if !retry || opts.Isolation != sql.LevelSerializable {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (m *Manager) attempt(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (bool, error) {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return isRetryable(tx, err), err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return isRetryable(tx, err), fmt.Errorf("%w: %v", ErrCommitTx, err)
	}

	return false, nil
}

func isRetryable(tx dbmetrics.TxExecutor, err error) bool {
	if dbmetrics.IsRetryable(err) {
		return true
	}
	if marker, ok := tx.(retryMarker); ok {
		return marker.Retryable()
	}
	return false
}
