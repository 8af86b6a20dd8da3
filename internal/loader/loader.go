// Package loader retrieves daily price history for a ticker and memoises it
// for the life of the process.
package loader

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/provider"
	"stock-forecaster/internal/store"
	"stock-forecaster/pkg/utils"
)

// Loader fetches history from start to today. Results are kept in memory per
// symbol and, when a store is configured, on disk for the rest of the
// trading day.
type Loader struct {
	provider provider.Provider
	store    store.HistoryStore
	start    time.Time
	now      func() time.Time
	logger   zerolog.Logger

	mu    sync.Mutex
	cache map[string]*models.PriceSeries
	locks map[string]*sync.Mutex
}

// Option configures a Loader.
type Option func(*Loader)

// WithStore enables the on-disk tier.
func WithStore(s store.HistoryStore) Option {
	return func(l *Loader) { l.store = s }
}

// WithClock overrides the wall clock used to compute "today".
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New creates a loader downloading history from start.
func New(p provider.Provider, start time.Time, logger zerolog.Logger, opts ...Option) *Loader {
	l := &Loader{
		provider: p,
		start:    utils.DateOf(start),
		now:      time.Now,
		logger:   logger.With().Str("component", "loader").Logger(),
		cache:    make(map[string]*models.PriceSeries),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start returns the first day of requested history.
func (l *Loader) Start() time.Time { return l.start }

// Load returns the price history of symbol. Repeated calls for the same
// symbol return the memoised series without contacting the provider.
func (l *Loader) Load(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	lock := l.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	cached, ok := l.cache[symbol]
	l.mu.Unlock()
	if ok {
		l.logger.Debug().Str("symbol", symbol).Msg("memo hit")
		return cached, nil
	}

	started := time.Now()
	series, err := l.load(ctx, symbol)
	logging.LogStage(l.logger, string(errors.StageLoad), symbol, time.Since(started), err)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[symbol] = series
	l.mu.Unlock()
	return series, nil
}

// Cached reports whether symbol is memoised.
func (l *Loader) Cached(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[symbol]
	return ok
}

// Invalidate drops symbol from memory and from the on-disk tier so the next
// Load goes to the provider.
func (l *Loader) Invalidate(ctx context.Context, symbol string) error {
	l.mu.Lock()
	delete(l.cache, symbol)
	l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	if err := l.store.DeleteHistory(ctx, symbol); err != nil {
		return errors.Wrap(err, "clearing stored candles")
	}
	return nil
}

func (l *Loader) symbolLock(symbol string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[symbol] = lock
	}
	return lock
}

func (l *Loader) load(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	now := l.now()
	end := utils.DateOf(now)

	if series, ok := l.fromStore(ctx, symbol, now); ok {
		return series, nil
	}

	// The provider end bound is exclusive; ask for the day after today so
	// that today's bar is included when present.
	table, err := l.provider.Fetch(ctx, symbol, l.start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, errors.NewFetchError(symbol, err)
	}
	if table.Empty() {
		return nil, errors.NewNoDataError(symbol, l.start, end)
	}

	table, err = normalize(table)
	if err != nil {
		return nil, errors.NewFetchError(symbol, err)
	}

	l.persist(ctx, symbol, table, now)

	return &models.PriceSeries{
		Symbol:    symbol,
		Start:     l.start,
		End:       end,
		Table:     table,
		FetchedAt: now,
		Source:    l.provider.Name(),
	}, nil
}

func (l *Loader) fromStore(ctx context.Context, symbol string, now time.Time) (*models.PriceSeries, bool) {
	if l.store == nil {
		return nil, false
	}
	last, err := l.store.LastSync(ctx, symbol)
	if err != nil {
		l.logger.Warn().Err(err).Str("symbol", symbol).Msg("candle store sync lookup failed, refetching")
		return nil, false
	}
	if last.IsZero() || !utils.SameDay(last, now) {
		return nil, false
	}

	end := utils.DateOf(now)
	candles, err := l.store.LoadHistory(ctx, symbol, l.start, end)
	if err != nil {
		l.logger.Warn().Err(err).Str("symbol", symbol).Msg("candle store read failed, refetching")
		return nil, false
	}
	if len(candles) == 0 {
		return nil, false
	}

	l.logger.Debug().Str("symbol", symbol).Int("rows", len(candles)).Msg("served from candle store")
	return &models.PriceSeries{
		Symbol:    symbol,
		Start:     l.start,
		End:       end,
		Table:     FromCandles(candles),
		FetchedAt: last,
		Source:    "store",
	}, true
}

// persist writes the table to the store when every cell is a clean number.
// Tables with gaps are served from memory only so the preparer still sees
// the gaps on the next start.
func (l *Loader) persist(ctx context.Context, symbol string, table *frame.Frame, now time.Time) {
	if l.store == nil {
		return
	}
	candles, ok := ToCandles(table)
	if !ok {
		l.logger.Debug().Str("symbol", symbol).Msg("table has non-numeric cells, not persisted")
		return
	}
	if err := l.store.SaveHistory(ctx, symbol, candles, now); err != nil {
		l.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to save candles")
	}
}

// normalize orders rows by date ascending and drops repeated dates, keeping
// the last occurrence. Rows whose date cell is not a time keep their
// position relative to each other at the end of the table.
func normalize(table *frame.Frame) (*frame.Frame, error) {
	dates, ok := table.Column(models.ColDate)
	if !ok {
		return table, nil
	}

	idx := make([]int, table.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, okA := dates.Values[idx[a]].(time.Time)
		tb, okB := dates.Values[idx[b]].(time.Time)
		switch {
		case okA && okB:
			return ta.Before(tb)
		case okA:
			return true
		default:
			return false
		}
	})

	keep := make([]int, 0, len(idx))
	for k, i := range idx {
		if k+1 < len(idx) {
			cur, okA := dates.Values[i].(time.Time)
			next, okB := dates.Values[idx[k+1]].(time.Time)
			if okA && okB && cur.Equal(next) {
				continue
			}
		}
		keep = append(keep, i)
	}

	out := frame.New(table.Columns()...)
	for _, i := range keep {
		if err := out.Append(table.Row(i)...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
