package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

const dayLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	symbol    TEXT NOT NULL,
	day       TEXT NOT NULL,
	open      REAL NOT NULL,
	high      REAL NOT NULL,
	low       REAL NOT NULL,
	close     REAL NOT NULL,
	adj_close REAL NOT NULL,
	volume    INTEGER NOT NULL,
	PRIMARY KEY (symbol, day)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS price_sync (
	symbol    TEXT PRIMARY KEY,
	synced_at INTEGER NOT NULL
);
`

// SQLiteStore implements HistoryStore on a single SQLite file. Trading days
// are stored as IST calendar dates.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveHistory replaces the stored history of symbol.
func (s *SQLiteStore) SaveHistory(ctx context.Context, symbol string, candles []models.Candle, syncedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_prices WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("failed to clear %s: %w", symbol, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO daily_prices (symbol, day, open, high, low, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		day := utils.DateOf(c.Timestamp).Format(dayLayout)
		if _, err := stmt.ExecContext(ctx, symbol, day, c.Open, c.High, c.Low, c.Close, c.AdjClose, c.Volume); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", symbol, day, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO price_sync (symbol, synced_at) VALUES (?, ?)
		ON CONFLICT(symbol) DO UPDATE SET synced_at = excluded.synced_at`,
		symbol, syncedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to record sync for %s: %w", symbol, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadHistory returns the bars of symbol between from and to inclusive.
func (s *SQLiteStore) LoadHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, open, high, low, close, adj_close, volume
		FROM daily_prices
		WHERE symbol = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`,
		symbol, utils.DateOf(from).Format(dayLayout), utils.DateOf(to).Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", symbol, err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var (
			c   models.Candle
			day string
		)
		if err := rows.Scan(&day, &c.Open, &c.High, &c.Low, &c.Close, &c.AdjClose, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", symbol, err)
		}
		if c.Timestamp, err = utils.ParseDate(day); err != nil {
			return nil, fmt.Errorf("bad stored day %q for %s: %w", day, symbol, err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", symbol, err)
	}
	return candles, nil
}

// LastSync returns when symbol was last saved.
func (s *SQLiteStore) LastSync(ctx context.Context, symbol string) (time.Time, error) {
	var nanos int64
	err := s.db.QueryRowContext(ctx, `SELECT synced_at FROM price_sync WHERE symbol = ?`, symbol).Scan(&nanos)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync time for %s: %w", symbol, err)
	}
	return time.Unix(0, nanos), nil
}

// DeleteHistory removes everything stored for symbol.
func (s *SQLiteStore) DeleteHistory(ctx context.Context, symbol string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_prices WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("failed to delete %s: %w", symbol, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM price_sync WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("failed to delete sync time for %s: %w", symbol, err)
	}
	return tx.Commit()
}
