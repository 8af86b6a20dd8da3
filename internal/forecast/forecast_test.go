package forecast

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// linearModel predicts the fitted mean plus a unit slope per point.
type linearModel struct {
	fitErr     error
	predictErr error
	panicFit   bool
	short      bool
	fitted     int
	mean       float64
}

func (m *linearModel) Fit(t []time.Time, y []float64) error {
	if m.panicFit {
		panic("singular matrix")
	}
	if m.fitErr != nil {
		return m.fitErr
	}
	for _, v := range y {
		m.mean += v
	}
	m.mean /= float64(len(y))
	m.fitted = len(y)
	return nil
}

func (m *linearModel) Predict(t []time.Time) (*Prediction, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	n := len(t)
	if m.short {
		n--
	}
	p := &Prediction{T: t, Yhat: make([]float64, n), Lower: make([]float64, n), Upper: make([]float64, n), Trend: make([]float64, n)}
	for i := 0; i < n; i++ {
		p.Yhat[i] = m.mean + float64(i)
		p.Lower[i] = p.Yhat[i] - 1
		p.Upper[i] = p.Yhat[i] + 1
		p.Trend[i] = p.Yhat[i]
	}
	return p, nil
}

func input(n int) *models.ModelInput {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, utils.IndiaLocation)
	in := &models.ModelInput{Symbol: "INFY.NS"}
	for i := 0; i < n; i++ {
		in.Points = append(in.Points, models.Point{Timestamp: start.AddDate(0, 0, i), Value: 100 + float64(i)})
	}
	return in
}

func withModel(m Model) Option {
	return WithModel(func() (Model, error) { return m, nil })
}

func TestForecastCoversHistoryAndHorizon(t *testing.T) {
	m := &linearModel{}
	fc, err := New(zerolog.Nop(), withModel(m)).Forecast(context.Background(), input(30), 365)
	require.NoError(t, err)

	assert.Equal(t, 30, m.fitted)
	assert.Len(t, fc.Rows, 30+365)
	assert.Len(t, fc.Future(), 365)
	assert.Equal(t, 30, fc.History)

	for i := 1; i < len(fc.Rows); i++ {
		assert.True(t, fc.Rows[i-1].Timestamp.Before(fc.Rows[i].Timestamp), "row %d not increasing", i)
	}
	last := fc.Rows[len(fc.Rows)-1]
	assert.Equal(t, last.Yhat-1, last.YhatLower)
	assert.Equal(t, last.Yhat, last.Trend)
	assert.Zero(t, last.Seasonality)
}

func TestFutureDates(t *testing.T) {
	hist := input(3).Times()
	dates := FutureDates(hist, 1825)
	assert.Len(t, dates, 3+1825)
	assert.Equal(t, hist[2].AddDate(0, 0, 1), dates[3])
	assert.Empty(t, FutureDates(nil, 10))
}

func TestForecastModelErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *linearModel
		phase errors.ModelPhase
	}{
		{"fit error", &linearModel{fitErr: fmt.Errorf("not enough points")}, errors.PhaseFit},
		{"fit panic", &linearModel{panicFit: true}, errors.PhaseFit},
		{"predict error", &linearModel{predictErr: fmt.Errorf("not fitted")}, errors.PhasePredict},
		{"short prediction", &linearModel{short: true}, errors.PhasePredict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(zerolog.Nop(), withModel(tt.model)).Forecast(context.Background(), input(10), 5)
			var modelErr *errors.ModelError
			require.True(t, errors.As(err, &modelErr), "got %v", err)
			assert.Equal(t, tt.phase, modelErr.Phase)
			assert.Equal(t, errors.StageForecast, errors.StageOf(err))
		})
	}
}

func TestForecastRejectsBadInput(t *testing.T) {
	f := New(zerolog.Nop(), withModel(&linearModel{}))

	_, err := f.Forecast(context.Background(), input(5), -1)
	assert.True(t, errors.Is(err, errors.ErrInvalidHorizon))

	_, err = f.Forecast(context.Background(), &models.ModelInput{}, 10)
	assert.True(t, errors.Is(err, errors.ErrModel))
}

func TestForecastHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &linearModel{}
	_, err := New(zerolog.Nop(), withModel(m)).Forecast(ctx, input(5), 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, m.fitted)
}
