package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

type txKey struct{}

// handle returns the transaction carried by ctx when RunTx opened one,
// falling back to the pool. Repos route every statement through it so a
// unit of work spanning several repos stays on one transaction.
func (s *Store) handle(ctx context.Context) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// maxTxAttempts bounds retries of serialization failures (40001/40P01).
const maxTxAttempts = 3

// RunTx executes fn inside a transaction, Serializable by default. The
// transaction travels in the context; nested calls join it instead of
// opening a second one. A serialization failure is retried with a fresh
// transaction, so fn must be safe to run more than once.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.runTxOnce(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return err
}

func (s *Store) runTxOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Catalog() *CatalogRepo     { return &CatalogRepo{store: s} }
func (s *Store) Bookings() *BookingRepo    { return &BookingRepo{store: s} }
func (s *Store) Payments() *PaymentRepo    { return &PaymentRepo{store: s} }
func (s *Store) Audit() *AuditRepo         { return &AuditRepo{store: s} }
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{store: s} }
