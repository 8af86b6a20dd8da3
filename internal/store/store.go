// Package store keeps downloaded daily price history on disk so that a
// restarted process can serve the same trading day without refetching.
package store

import (
	"context"
	"time"

	"stock-forecaster/internal/models"
)

// HistoryStore persists the daily history of each symbol together with the
// time it was last downloaded.
type HistoryStore interface {
	// SaveHistory replaces the stored history of symbol and records syncedAt
	// in the same transaction.
	SaveHistory(ctx context.Context, symbol string, candles []models.Candle, syncedAt time.Time) error
	// LoadHistory returns stored bars with from <= date <= to, oldest first.
	LoadHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	// LastSync returns the zero time when symbol was never saved.
	LastSync(ctx context.Context, symbol string) (time.Time, error)
	// DeleteHistory removes the bars and the sync time of symbol.
	DeleteHistory(ctx context.Context, symbol string) error

	Ping(ctx context.Context) error
	Close() error
}
