// Package models provides domain models for the forecasting application.
package models

import (
	"time"

	"stock-forecaster/internal/frame"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
)

// Column names of a loaded price table.
const (
	ColDate     = "Date"
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColAdjClose = "Adj Close"
	ColVolume   = "Volume"
)

// PriceColumns is the column order of a loaded price table.
var PriceColumns = []string{ColDate, ColOpen, ColHigh, ColLow, ColClose, ColAdjClose, ColVolume}

// Candle represents one trading day of OHLCV data.
type Candle struct {
	Timestamp time.Time `json:"date" csv:"Date"`
	Open      float64   `json:"open" csv:"Open"`
	High      float64   `json:"high" csv:"High"`
	Low       float64   `json:"low" csv:"Low"`
	Close     float64   `json:"close" csv:"Close"`
	AdjClose  float64   `json:"adj_close" csv:"Adj Close"`
	Volume    int64     `json:"volume" csv:"Volume"`
}

// PriceSeries is the loaded daily history of one ticker. Table holds the
// provider rows with the date as an explicit Date column, ascending, with no
// duplicate dates.
type PriceSeries struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	Table     *frame.Frame
	FetchedAt time.Time
	Source    string
}

// Len returns the number of trading days in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return s.Table.Len()
}

// Point is one observation of the model input series.
type Point struct {
	Timestamp time.Time `json:"ds"`
	Value     float64   `json:"y"`
}

// ModelInput is the validated two-column series handed to the forecaster.
type ModelInput struct {
	Symbol string
	Points []Point
}

// Times returns the timestamps of the series.
func (m *ModelInput) Times() []time.Time {
	out := make([]time.Time, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Timestamp
	}
	return out
}

// Values returns the observed values of the series.
func (m *ModelInput) Values() []float64 {
	out := make([]float64, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Value
	}
	return out
}

// ForecastRow is one predicted day.
type ForecastRow struct {
	Timestamp   time.Time `json:"ds" csv:"ds"`
	Yhat        float64   `json:"yhat" csv:"yhat"`
	YhatLower   float64   `json:"yhat_lower" csv:"yhat_lower"`
	YhatUpper   float64   `json:"yhat_upper" csv:"yhat_upper"`
	Trend       float64   `json:"trend" csv:"trend"`
	Seasonality float64   `json:"seasonality" csv:"seasonality"`
	Event       float64   `json:"event" csv:"event"`
}

// Forecast is the model output over history plus the future horizon.
type Forecast struct {
	Symbol      string
	HorizonDays int
	History     int
	Rows        []ForecastRow
}

// Future returns only the rows past the fitted history.
func (f *Forecast) Future() []ForecastRow {
	if f.History >= len(f.Rows) {
		return nil
	}
	return f.Rows[f.History:]
}

// Tail returns the last n forecast rows.
func (f *Forecast) Tail(n int) []ForecastRow {
	if n >= len(f.Rows) {
		return f.Rows
	}
	return f.Rows[len(f.Rows)-n:]
}
