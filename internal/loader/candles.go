package loader

import (
	"math"
	"time"

	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// ToCandles converts a price table into candles. It reports false when a
// row lacks a date or a finite price.
func ToCandles(table *frame.Frame) ([]models.Candle, bool) {
	cols := make(map[string][]interface{}, len(models.PriceColumns))
	for _, name := range models.PriceColumns {
		c, ok := table.Column(name)
		if !ok {
			return nil, false
		}
		cols[name] = c.Values
	}

	candles := make([]models.Candle, table.Len())
	for i := range candles {
		ts, ok := cols[models.ColDate][i].(time.Time)
		if !ok {
			return nil, false
		}
		c := models.Candle{Timestamp: ts}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{models.ColOpen, &c.Open},
			{models.ColHigh, &c.High},
			{models.ColLow, &c.Low},
			{models.ColClose, &c.Close},
			{models.ColAdjClose, &c.AdjClose},
		} {
			v, ok := cols[f.name][i].(float64)
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			*f.dst = v
		}
		switch v := cols[models.ColVolume][i].(type) {
		case int64:
			c.Volume = v
		case nil:
		default:
			return nil, false
		}
		candles[i] = c
	}
	return candles, true
}

// FromCandles builds a price table from candles.
func FromCandles(candles []models.Candle) *frame.Frame {
	f := frame.New(models.PriceColumns...)
	for _, c := range candles {
		_ = f.Append(utils.DateOf(c.Timestamp), c.Open, c.High, c.Low, c.Close, c.AdjClose, c.Volume)
	}
	return f
}
