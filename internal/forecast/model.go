package forecast

import (
	"time"

	forecaster "github.com/aouyang1/go-forecaster"
)

// goForecaster adapts github.com/aouyang1/go-forecaster to Model.
type goForecaster struct {
	f *forecaster.Forecaster
}

// NewDefaultModel creates a go-forecaster model with library defaults:
// a linear trend plus daily and weekly seasonality and an uncertainty band.
func NewDefaultModel() (Model, error) {
	f, err := forecaster.New(nil)
	if err != nil {
		return nil, err
	}
	return &goForecaster{f: f}, nil
}

func (m *goForecaster) Fit(t []time.Time, y []float64) error {
	return m.f.Fit(t, y)
}

func (m *goForecaster) Predict(t []time.Time) (*Prediction, error) {
	res, err := m.f.Predict(t)
	if err != nil {
		return nil, err
	}
	return &Prediction{
		T:           res.T,
		Yhat:        res.Forecast,
		Lower:       res.Lower,
		Upper:       res.Upper,
		Trend:       res.SeriesComponents.Trend,
		Seasonality: res.SeriesComponents.Seasonality,
		Event:       res.SeriesComponents.Event,
	}, nil
}
