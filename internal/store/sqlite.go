// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/models"
	"position-ledger/pkg/utils"
)

// SQLiteStore implements PositionStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry utils.RetryConfig
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithRetry overrides the retry policy applied to busy or locked databases.
func WithRetry(cfg utils.RetryConfig) SQLiteOption {
	return func(s *SQLiteStore) {
		cfg.Retryable = isBusy
		s.retry = cfg
	}
}

// NewSQLiteStore creates a new SQLite-based position store.
func NewSQLiteStore(dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, lerrors.NewStoreError("open", "", errors.New("database path is not configured"))
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, lerrors.NewStoreError("open", "", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	retry := utils.DefaultRetryConfig()
	retry.Retryable = isBusy
	store := &SQLiteStore{
		db:    db,
		retry: retry,
	}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, lerrors.NewStoreError("init", "", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	// Decimal columns are stored as TEXT to keep exact values.
	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		ticker TEXT PRIMARY KEY,
		quantity TEXT NOT NULL,
		avg_price TEXT NOT NULL,
		hist_dividend TEXT NOT NULL DEFAULT '0',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return lerrors.NewStoreError("ping", "", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isBusy reports whether err is a transient SQLite lock conflict.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// Get retrieves the position for ticker.
func (s *SQLiteStore) Get(ctx context.Context, ticker string) (*models.Position, error) {
	pos, err := utils.RetryWithResult(ctx, s.retry, func() (*models.Position, error) {
		var (
			p                       models.Position
			qty, avgPrice, dividend string
			updatedAt               sql.NullTime
		)
		err := s.db.QueryRowContext(ctx, `
			SELECT ticker, quantity, avg_price, hist_dividend, updated_at
			FROM positions WHERE ticker = ?
		`, ticker).Scan(&p.Ticker, &qty, &avgPrice, &dividend, &updatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if err := decodePosition(&p, qty, avgPrice, dividend, updatedAt); err != nil {
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		return nil, lerrors.NewStoreError("get", ticker, err)
	}
	return pos, nil
}

// Put inserts or replaces a position.
func (s *SQLiteStore) Put(ctx context.Context, position models.Position) error {
	updatedAt := position.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	err := utils.Retry(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO positions (ticker, quantity, avg_price, hist_dividend, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(ticker) DO UPDATE SET
				quantity = excluded.quantity,
				avg_price = excluded.avg_price,
				hist_dividend = excluded.hist_dividend,
				updated_at = excluded.updated_at
		`, position.Ticker, position.Quantity.String(), position.AvgPrice.String(), position.HistDividend.String(), updatedAt)
		return err
	})
	if err != nil {
		return lerrors.NewStoreError("put", position.Ticker, err)
	}
	return nil
}

// Delete removes the position for ticker.
func (s *SQLiteStore) Delete(ctx context.Context, ticker string) error {
	err := utils.Retry(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE ticker = ?`, ticker)
		return err
	})
	if err != nil {
		return lerrors.NewStoreError("delete", ticker, err)
	}
	return nil
}

// List retrieves all positions ordered by ticker.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Position, error) {
	positions, err := utils.RetryWithResult(ctx, s.retry, func() ([]models.Position, error) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT ticker, quantity, avg_price, hist_dividend, updated_at
			FROM positions
			ORDER BY ticker ASC
		`)
		if err != nil {
			return nil, fmt.Errorf("failed to query positions: %w", err)
		}
		defer rows.Close()

		var positions []models.Position
		for rows.Next() {
			var (
				p                       models.Position
				qty, avgPrice, dividend string
				updatedAt               sql.NullTime
			)
			if err := rows.Scan(&p.Ticker, &qty, &avgPrice, &dividend, &updatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan position: %w", err)
			}
			if err := decodePosition(&p, qty, avgPrice, dividend, updatedAt); err != nil {
				return nil, err
			}
			positions = append(positions, p)
		}

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating positions: %w", err)
		}
		return positions, nil
	})
	if err != nil {
		return nil, lerrors.NewStoreError("list", "", err)
	}
	return positions, nil
}

// decodePosition parses the TEXT decimal columns of a positions row.
func decodePosition(p *models.Position, qty, avgPrice, dividend string, updatedAt sql.NullTime) error {
	var err error
	if p.Quantity, err = decimal.NewFromString(qty); err != nil {
		return fmt.Errorf("corrupt quantity %q for %s: %w", qty, p.Ticker, err)
	}
	if p.AvgPrice, err = decimal.NewFromString(avgPrice); err != nil {
		return fmt.Errorf("corrupt avg_price %q for %s: %w", avgPrice, p.Ticker, err)
	}
	if p.HistDividend, err = decimal.NewFromString(dividend); err != nil {
		return fmt.Errorf("corrupt hist_dividend %q for %s: %w", dividend, p.Ticker, err)
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return nil
}
