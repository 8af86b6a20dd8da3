package charts

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stock-forecaster/internal/models"
)

// OpenClose plots the daily open and close prices with a range slider.
func OpenClose(series *models.PriceSeries, name string, o Options) (*charts.Line, error) {
	dates, err := seriesDates(series, PanelOpenClose)
	if err != nil {
		return nil, err
	}
	open, err := seriesColumn(series, PanelOpenClose, models.ColOpen)
	if err != nil {
		return nil, err
	}
	closes, err := seriesColumn(series, PanelOpenClose, models.ColClose)
	if err != nil {
		return nil, err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(commonOpts("Time Series Data for "+name+" Stock Prices", o, true)...)
	line.SetXAxis(dateAxis(dates)).
		AddSeries("Stock Open", lineData(open), charts.WithLineStyleOpts(opts.LineStyle{Color: colorOpen})).
		AddSeries("Stock Close", lineData(closes), charts.WithLineStyleOpts(opts.LineStyle{Color: colorClose}))
	return line, nil
}

// Candlestick plots OHLC bars, green when the day closed up and red when it
// closed down. Rows with a missing price are left out.
func Candlestick(series *models.PriceSeries, name string, o Options) (*charts.Kline, error) {
	dates, err := seriesDates(series, PanelCandlestick)
	if err != nil {
		return nil, err
	}
	cols := make(map[string][]interface{}, 4)
	for _, c := range []string{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose} {
		values, err := seriesColumn(series, PanelCandlestick, c)
		if err != nil {
			return nil, err
		}
		cols[c] = values
	}

	var (
		x    []string
		bars []opts.KlineData
	)
	axis := dateAxis(dates)
	for i := range dates {
		op, ok1 := cols[models.ColOpen][i].(float64)
		h, ok2 := cols[models.ColHigh][i].(float64)
		l, ok3 := cols[models.ColLow][i].(float64)
		c, ok4 := cols[models.ColClose][i].(float64)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue
		}
		x = append(x, axis[i])
		// echarts orders candlestick values as open, close, low, high.
		bars = append(bars, opts.KlineData{Value: [4]float64{op, c, l, h}})
	}
	if len(bars) == 0 {
		return nil, emptyInput(PanelCandlestick)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(commonOpts("Candlestick Chart for "+name, o, false)...)
	kline.SetXAxis(x).AddSeries(name, bars, charts.WithItemStyleOpts(opts.ItemStyle{
		Color:        colorUp,
		Color0:       colorDown,
		BorderColor:  colorUp,
		BorderColor0: colorDown,
	}))
	return kline, nil
}

// ClosePrice plots the close price alone with a range slider.
func ClosePrice(series *models.PriceSeries, name string, o Options) (*charts.Line, error) {
	dates, err := seriesDates(series, PanelClose)
	if err != nil {
		return nil, err
	}
	closes, err := seriesColumn(series, PanelClose, models.ColClose)
	if err != nil {
		return nil, err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(commonOpts("Current Stock Price for "+name, o, true)...)
	line.SetXAxis(dateAxis(dates)).
		AddSeries("Current Price", lineData(closes), charts.WithLineStyleOpts(opts.LineStyle{Color: colorCurrent}))
	return line, nil
}
