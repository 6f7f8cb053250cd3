package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/planora/demandcast/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Fallbacks for pool settings left unset in the config.
const (
	defaultMaxOpenConns     = 25
	defaultMaxIdleConns     = 5
	defaultConnLifetimeMins = 5
	defaultTxWidth          = 10
)

// DB is the shared connection pool. A weighted semaphore caps how many
// transactions run at once so a burst of persisted runs cannot exhaust the
// pool for the read endpoints.
type DB struct {
	*sqlx.DB
	txSem *semaphore.Weighted
}

// NewDB connects to postgres and applies the configured pool limits.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	maxOpen, maxIdle, lifetime, txWidth := poolSettings(cfg)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	return &DB{DB: db, txSem: semaphore.NewWeighted(txWidth)}, nil
}

// poolSettings resolves configured pool limits, substituting fallbacks for
// non-positive values.
func poolSettings(cfg *config.DatabaseConfig) (maxOpen, maxIdle int, lifetime time.Duration, txWidth int64) {
	maxOpen = cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle = cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	mins := cfg.ConnMaxLifetimeMins
	if mins <= 0 {
		mins = defaultConnLifetimeMins
	}
	lifetime = time.Duration(mins) * time.Minute
	txWidth = int64(cfg.MaxConcurrentTxs)
	if txWidth <= 0 {
		txWidth = defaultTxWidth
	}
	return maxOpen, maxIdle, lifetime, txWidth
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error. The call blocks while the configured number of transactions is
// already in flight.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := db.txSem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire transaction slot: %w", err)
	}
	defer db.txSem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
