// Package pipeline runs one dashboard interaction: load the selected stock,
// prepare the series, forecast it, and lay out the resulting page. A failure
// halts only the sections that depend on the failing stage.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/catalog"
	"stock-forecaster/internal/charts"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
)

// DaysPerYear converts the horizon slider into forecast days.
const DaysPerYear = 365

// DataLoader returns the history of a ticker.
type DataLoader interface {
	Load(ctx context.Context, symbol string) (*models.PriceSeries, error)
}

// SeriesPreparer validates a history into model input.
type SeriesPreparer interface {
	Prepare(series *models.PriceSeries) (*models.ModelInput, error)
}

// SeriesForecaster predicts a horizon from model input.
type SeriesForecaster interface {
	Forecast(ctx context.Context, input *models.ModelInput, horizonDays int) (*models.Forecast, error)
}

// Selection is the user's input for one run.
type Selection struct {
	Stock catalog.Stock
	Years int
}

// HorizonDays is the number of future days to predict.
func (s Selection) HorizonDays() int {
	return HorizonDays(s.Years)
}

// HorizonDays converts years into days.
func HorizonDays(years int) int {
	return years * DaysPerYear
}

// Config bounds the selection and sizes the tables.
type Config struct {
	MinYears int
	MaxYears int
	TailRows int
	Charts   charts.Options
}

// DefaultConfig matches the dashboard slider.
func DefaultConfig() Config {
	return Config{MinYears: 1, MaxYears: 5, TailRows: 5, Charts: charts.DefaultOptions}
}

const maxMemoForecasts = 32

// Dashboard wires the pipeline stages together.
type Dashboard struct {
	loader     DataLoader
	preparer   SeriesPreparer
	forecaster SeriesForecaster
	cfg        Config
	logger     zerolog.Logger

	mu        sync.Mutex
	forecasts map[string]*models.Forecast
}

// New creates a Dashboard.
func New(loader DataLoader, preparer SeriesPreparer, forecaster SeriesForecaster, cfg Config, logger zerolog.Logger) *Dashboard {
	return &Dashboard{
		loader:     loader,
		preparer:   preparer,
		forecaster: forecaster,
		cfg:        cfg,
		logger:     logger.With().Str("component", "pipeline").Logger(),
		forecasts:  make(map[string]*models.Forecast),
	}
}

// Config returns the dashboard bounds.
func (d *Dashboard) Config() Config { return d.cfg }

// Select resolves a stock name or symbol and checks the horizon.
func (d *Dashboard) Select(query string, years int) (Selection, error) {
	stock, ok := catalog.Resolve(query)
	if !ok {
		return Selection{}, errors.NewValidationError("stock", query, "not in the stock list", errors.ErrUnknownStock)
	}
	if years < d.cfg.MinYears || years > d.cfg.MaxYears {
		return Selection{}, errors.NewValidationError("years", years,
			fmt.Sprintf("must be between %d and %d", d.cfg.MinYears, d.cfg.MaxYears), errors.ErrInvalidHorizon)
	}
	return Selection{Stock: stock, Years: years}, nil
}

// Run executes every stage.
func (d *Dashboard) Run(ctx context.Context, sel Selection) *Page {
	return d.run(ctx, sel, true)
}

// RunPrices stops after the price sections and never fits the model.
func (d *Dashboard) RunPrices(ctx context.Context, sel Selection) *Page {
	return d.run(ctx, sel, false)
}

func (d *Dashboard) run(ctx context.Context, sel Selection, withForecast bool) *Page {
	logger := logging.WithSymbol(d.logger, sel.Stock.Symbol)
	started := time.Now()

	page := &Page{Selection: sel, Status: StatusLoading, tailRows: d.cfg.TailRows, chartOpts: d.cfg.Charts}
	name := sel.Stock.Name

	series, err := d.loader.Load(ctx, sel.Stock.Symbol)
	if err != nil {
		page.Status = StatusFailed
		page.halt(errors.StageLoad, err)
		logger.Warn().Err(err).Msg("load failed")
		return page
	}
	page.Status = StatusDone
	page.Series = series

	page.addTable(SectionRawTable, "Raw Data for "+name)
	page.addChart(charts.PanelOpenClose, "Time Series Data for "+name)
	page.addChart(charts.PanelCandlestick, "Candlestick Chart for "+name)
	page.addChart(charts.PanelClose, "Current Stock Price for "+name)

	input, err := d.preparer.Prepare(series)
	if err != nil {
		page.halt(errors.StagePrepare, err)
		logger.Warn().Err(err).Msg("series rejected")
		return page
	}
	page.Input = input

	if !withForecast {
		return page
	}

	fc, err := d.forecast(ctx, series, input, sel.HorizonDays())
	if err != nil {
		page.halt(errors.StageForecast, err)
		logger.Warn().Err(err).Msg("forecast failed")
		return page
	}
	page.Forecast = fc

	page.addTable(SectionForecastTable, "Forecast Data for "+name)
	page.addChart(charts.PanelForecast, "Forecast Plot for "+name)
	page.addChart(charts.PanelComponents, "Forecast Components for "+name)

	logger.Info().
		Int("rows", series.Len()).
		Int("horizon_days", sel.HorizonDays()).
		Dur("duration", time.Since(started)).
		Msg("page ready")
	return page
}

// forecast reuses a prediction for the same history and horizon so that the
// chart frames of one page do not refit the model.
func (d *Dashboard) forecast(ctx context.Context, series *models.PriceSeries, input *models.ModelInput, horizon int) (*models.Forecast, error) {
	key := fmt.Sprintf("%s|%d|%d|%d", series.Symbol, series.FetchedAt.UnixNano(), series.Len(), horizon)

	d.mu.Lock()
	fc, ok := d.forecasts[key]
	d.mu.Unlock()
	if ok {
		return fc, nil
	}

	fc, err := d.forecaster.Forecast(ctx, input, horizon)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if len(d.forecasts) >= maxMemoForecasts {
		d.forecasts = make(map[string]*models.Forecast)
	}
	d.forecasts[key] = fc
	d.mu.Unlock()
	return fc, nil
}
