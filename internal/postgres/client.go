package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/meterline/meterline/internal/config"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/types"
	"go.uber.org/fx"
)

// Querier is the subset of sqlx operations shared by *sqlx.DB and *sqlx.Tx.
// Repositories run all their queries through it so they work identically
// inside and outside transactions.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sqlResult, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sqlResult, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

type sqlResult interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// IClient defines the interface for postgres client operations
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// TxFromContext returns the transaction from context if it exists
	TxFromContext(ctx context.Context) *sqlx.Tx

	// Querier returns the current transaction if in a transaction, or the
	// regular connection pool
	Querier(ctx context.Context) Querier
}

// Client wraps sqlx.DB to provide transaction management
type Client struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// Module provides an fx.Option to integrate the postgres client with the application
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
	)
}

// NewDB opens the postgres connection pool
func NewDB(cfg *config.Configuration) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	return db, nil
}

// NewClient creates a new postgres client wrapper with transaction management
func NewClient(db *sqlx.DB, logger *logger.Logger) IClient {
	return &Client{
		db:     db,
		logger: logger,
	}
}

// WithTx wraps the given function in a transaction
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// If we're already in a transaction, reuse it and do not start a new one or commit it
	if tx := c.TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	// Ensure transaction is rolled back on panic
	defer func() {
		if v := recover(); v != nil {
			c.logger.Errorw("rolling back transaction due to panic",
				"panic", v,
			)
			_ = tx.Rollback()
			panic(v)
		}
	}()

	txCtx := context.WithValue(ctx, types.CtxDBTransaction, tx)

	if err := fn(txCtx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("rolling back transaction: %v (original error: %w)", rerr, err)
		}
		c.logger.Errorw("rolling back transaction due to error",
			"error", err,
		)
		return err
	}

	if err := tx.Commit(); err != nil {
		c.logger.Errorw("committing transaction",
			"error", err,
		)
		return fmt.Errorf("committing transaction: %w", err)
	}

	c.logger.Debugw("committed transaction")
	return nil
}

// TxFromContext returns the transaction from context if it exists
func (c *Client) TxFromContext(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

// Querier returns the current transaction if in a transaction, or the
// regular connection pool
func (c *Client) Querier(ctx context.Context) Querier {
	if tx := c.TxFromContext(ctx); tx != nil {
		return txQuerier{tx}
	}
	return dbQuerier{c.db}
}

type dbQuerier struct{ db *sqlx.DB }

func (q dbQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return q.db.GetContext(ctx, dest, query, args...)
}

func (q dbQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return q.db.SelectContext(ctx, dest, query, args...)
}

func (q dbQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sqlResult, error) {
	return q.db.ExecContext(ctx, query, args...)
}

func (q dbQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sqlResult, error) {
	return q.db.NamedExecContext(ctx, query, arg)
}

func (q dbQuerier) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return q.db.QueryRowxContext(ctx, query, args...)
}

type txQuerier struct{ tx *sqlx.Tx }

func (q txQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return q.tx.GetContext(ctx, dest, query, args...)
}

func (q txQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return q.tx.SelectContext(ctx, dest, query, args...)
}

func (q txQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sqlResult, error) {
	return q.tx.ExecContext(ctx, query, args...)
}

func (q txQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sqlResult, error) {
	return q.tx.NamedExecContext(ctx, query, arg)
}

func (q txQuerier) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return q.tx.QueryRowxContext(ctx, query, args...)
}
