package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/store"
	"stock-forecaster/pkg/utils"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	args := m.Called(ctx, symbol, start, end)
	f, _ := args.Get(0).(*frame.Frame)
	return f, args.Error(1)
}

var (
	testStart = time.Date(2015, 1, 1, 0, 0, 0, 0, utils.IndiaLocation)
	testNow   = time.Date(2024, 6, 3, 15, 0, 0, 0, utils.IndiaLocation)
)

func day(offset int) time.Time {
	return testStart.AddDate(0, 0, offset)
}

func priceTable(t *testing.T, days ...int) *frame.Frame {
	t.Helper()
	f := frame.New(models.PriceColumns...)
	for _, d := range days {
		p := 100 + float64(d)
		require.NoError(t, f.Append(day(d), p, p+1, p-1, p+0.5, p+0.4, int64(1000+d)))
	}
	return f
}

func newTestLoader(p *mockProvider, opts ...Option) *Loader {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(p, testStart, zerolog.Nop(), opts...)
}

func TestLoadMemoisesPerSymbol(t *testing.T) {
	p := &mockProvider{}
	p.On("Fetch", mock.Anything, "INFY.NS", testStart, utils.DateOf(testNow).AddDate(0, 0, 1)).
		Return(priceTable(t, 0, 1, 2), nil).Once()

	l := newTestLoader(p)
	first, err := l.Load(context.Background(), "INFY.NS")
	require.NoError(t, err)
	second, err := l.Load(context.Background(), "INFY.NS")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 3, first.Len())
	assert.Equal(t, "mock", first.Source)
	assert.True(t, l.Cached("INFY.NS"))
	p.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestLoadEmptyIsNoData(t *testing.T) {
	p := &mockProvider{}
	p.On("Fetch", mock.Anything, "LICI.NS", mock.Anything, mock.Anything).
		Return(frame.New(models.PriceColumns...), nil)

	_, err := newTestLoader(p).Load(context.Background(), "LICI.NS")

	var noData *errors.NoDataError
	require.True(t, errors.As(err, &noData), "got %v", err)
	assert.Equal(t, "LICI.NS", noData.Symbol)
	assert.Equal(t, errors.StageLoad, errors.StageOf(err))
}

func TestLoadProviderFailureIsFetchError(t *testing.T) {
	p := &mockProvider{}
	cause := fmt.Errorf("dial tcp: connection refused")
	p.On("Fetch", mock.Anything, "TCS.NS", mock.Anything, mock.Anything).Return(nil, cause)

	l := newTestLoader(p)
	_, err := l.Load(context.Background(), "TCS.NS")

	assert.True(t, errors.Is(err, errors.ErrFetch))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, l.Cached("TCS.NS"), "failures must not be memoised")
}

func TestLoadSortsAndDeduplicates(t *testing.T) {
	raw := priceTable(t, 3, 1, 2, 1)
	p := &mockProvider{}
	p.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(raw, nil)

	series, err := newTestLoader(p).Load(context.Background(), "WIPRO.NS")
	require.NoError(t, err)

	dates, _ := series.Table.Column(models.ColDate)
	require.Len(t, dates.Values, 3)
	for i := 1; i < len(dates.Values); i++ {
		assert.True(t, dates.Values[i-1].(time.Time).Before(dates.Values[i].(time.Time)))
	}
}

func TestLoadConcurrentCallsFetchOnce(t *testing.T) {
	p := &mockProvider{}
	p.On("Fetch", mock.Anything, "ITC.NS", mock.Anything, mock.Anything).
		Return(priceTable(t, 0, 1), nil).
		After(10 * time.Millisecond)

	l := newTestLoader(p)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Load(context.Background(), "ITC.NS")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestLoadUsesStoreWithinTradingDay(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	defer s.Close()

	p := &mockProvider{}
	p.On("Fetch", mock.Anything, "HDFCBANK.NS", mock.Anything, mock.Anything).
		Return(priceTable(t, 0, 1, 2, 3), nil).Once()

	_, err = newTestLoader(p, WithStore(s)).Load(context.Background(), "HDFCBANK.NS")
	require.NoError(t, err)

	// A fresh process on the same day reads from disk.
	later := newTestLoader(p, WithStore(s))
	series, err := later.Load(context.Background(), "HDFCBANK.NS")
	require.NoError(t, err)

	assert.Equal(t, "store", series.Source)
	assert.Equal(t, 4, series.Len())
	p.AssertNumberOfCalls(t, "Fetch", 1)

	require.NoError(t, later.Invalidate(context.Background(), "HDFCBANK.NS"))
	assert.False(t, later.Cached("HDFCBANK.NS"))
	last, err := s.LastSync(context.Background(), "HDFCBANK.NS")
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestLoadDoesNotPersistGaps(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	defer s.Close()

	table := priceTable(t, 0, 1)
	require.NoError(t, table.Append(day(2), 1.0, 1.0, 1.0, nil, nil, nil))

	p := &mockProvider{}
	p.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(table, nil)

	series, err := newTestLoader(p, WithStore(s)).Load(context.Background(), "SBIN.NS")
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())

	last, err := s.LastSync(context.Background(), "SBIN.NS")
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestToCandlesRoundTrip(t *testing.T) {
	table := priceTable(t, 0, 5, 9)
	candles, ok := ToCandles(table)
	require.True(t, ok)
	require.Len(t, candles, 3)

	back := FromCandles(candles)
	assert.Equal(t, table.Records(), back.Records())
}

func TestProperty_NormalizedDatesStrictlyIncrease(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("normalize yields strictly increasing unique dates", prop.ForAll(
		func(offsets []int) bool {
			f := frame.New(models.ColDate, models.ColClose)
			seen := make(map[int]bool)
			for _, o := range offsets {
				seen[o] = true
				if err := f.Append(day(o), float64(o)); err != nil {
					return false
				}
			}
			out, err := normalize(f)
			if err != nil || out.Len() != len(seen) {
				return false
			}
			dates, _ := out.Column(models.ColDate)
			for i := 1; i < len(dates.Values); i++ {
				if !dates.Values[i-1].(time.Time).Before(dates.Values[i].(time.Time)) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 60)),
	))

	properties.TestingRun(t)
}
