// Package forecast fits a trend/seasonality model on a prepared series and
// predicts a future horizon.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
)

// Model is a fit-then-predict time series model.
type Model interface {
	Fit(t []time.Time, y []float64) error
	Predict(t []time.Time) (*Prediction, error)
}

// Prediction holds per-timestamp model output. All slices share the length of T.
type Prediction struct {
	T           []time.Time
	Yhat        []float64
	Lower       []float64
	Upper       []float64
	Trend       []float64
	Seasonality []float64
	Event       []float64
}

// ModelFactory creates an unfitted model. A new model is used per forecast.
type ModelFactory func() (Model, error)

// Forecaster runs one fit and one predict per call.
type Forecaster struct {
	newModel ModelFactory
	logger   zerolog.Logger
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithModel replaces the default model.
func WithModel(factory ModelFactory) Option {
	return func(f *Forecaster) { f.newModel = factory }
}

// New creates a Forecaster using the default model unless overridden.
func New(logger zerolog.Logger, opts ...Option) *Forecaster {
	f := &Forecaster{
		newModel: NewDefaultModel,
		logger:   logger.With().Str("component", "forecast").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast fits on input and predicts over the history plus horizonDays
// daily points after the last observation.
func (f *Forecaster) Forecast(ctx context.Context, input *models.ModelInput, horizonDays int) (*models.Forecast, error) {
	started := time.Now()
	result, err := f.forecast(ctx, input, horizonDays)
	symbol := ""
	if input != nil {
		symbol = input.Symbol
	}
	logging.LogStage(f.logger, string(errors.StageForecast), symbol, time.Since(started), err)
	return result, err
}

func (f *Forecaster) forecast(ctx context.Context, input *models.ModelInput, horizonDays int) (*models.Forecast, error) {
	if horizonDays < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidHorizon, "%d days", horizonDays)
	}
	if input == nil || len(input.Points) == 0 {
		return nil, errors.NewModelError(errors.PhaseFit, fmt.Errorf("empty input series"))
	}

	model, err := f.newModel()
	if err != nil {
		return nil, errors.NewModelError(errors.PhaseFit, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	history := input.Times()
	if err := guard(func() error { return model.Fit(history, input.Values()) }); err != nil {
		return nil, errors.NewModelError(errors.PhaseFit, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dates := FutureDates(history, horizonDays)
	var pred *Prediction
	err = guard(func() error {
		var perr error
		pred, perr = model.Predict(dates)
		return perr
	})
	if err != nil {
		return nil, errors.NewModelError(errors.PhasePredict, err)
	}
	if err := pred.check(len(dates)); err != nil {
		return nil, errors.NewModelError(errors.PhasePredict, err)
	}

	out := &models.Forecast{
		Symbol:      input.Symbol,
		HorizonDays: horizonDays,
		History:     len(history),
		Rows:        make([]models.ForecastRow, len(dates)),
	}
	for i := range dates {
		out.Rows[i] = models.ForecastRow{
			Timestamp:   dates[i],
			Yhat:        pred.Yhat[i],
			YhatLower:   pred.Lower[i],
			YhatUpper:   pred.Upper[i],
			Trend:       at(pred.Trend, i),
			Seasonality: at(pred.Seasonality, i),
			Event:       at(pred.Event, i),
		}
	}
	return out, nil
}

// FutureDates returns the history timestamps followed by horizon daily
// timestamps after the last one.
func FutureDates(history []time.Time, horizon int) []time.Time {
	out := make([]time.Time, 0, len(history)+horizon)
	out = append(out, history...)
	if len(history) == 0 {
		return out
	}
	last := history[len(history)-1]
	for i := 1; i <= horizon; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

func (p *Prediction) check(n int) error {
	if p == nil {
		return fmt.Errorf("model returned no prediction")
	}
	if len(p.Yhat) != n || len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("model returned %d/%d/%d values for %d timestamps",
			len(p.Yhat), len(p.Lower), len(p.Upper), n)
	}
	return nil
}

// at tolerates component slices the model left empty.
func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

// guard converts a panic inside the model into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return fn()
}
