// Package provider fetches daily price history from market-data services.
package provider

import (
	"context"
	"time"

	"stock-forecaster/internal/frame"
)

// Provider fetches daily OHLCV rows for a symbol over [start, end).
//
// The returned frame carries the columns in models.PriceColumns with the
// trading date as an explicit Date column. Cells are left as the service
// reported them; missing values are nil. A symbol or range without data
// yields an empty frame and a nil error. Transport and service failures are
// returned as errors.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error)
}
