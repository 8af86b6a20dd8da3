package charts

import (
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stock-forecaster/internal/models"
)

const (
	bandStack      = "band"
	seriesInterval = "Uncertainty interval"
)

// ForecastPlot draws the prediction with its uncertainty bounds over the
// observed values.
func ForecastPlot(fc *models.Forecast, actual *models.ModelInput, name string, o Options) (*charts.Line, error) {
	if fc == nil || len(fc.Rows) == 0 {
		return nil, emptyInput(PanelForecast)
	}

	n := len(fc.Rows)
	dates := make([]time.Time, n)
	yhat := make([]float64, n)
	lower := make([]float64, n)
	width := make([]float64, n)
	for i, r := range fc.Rows {
		dates[i] = r.Timestamp
		yhat[i] = r.Yhat
		lower[i] = r.YhatLower
		width[i] = r.YhatUpper - r.YhatLower
	}

	line := charts.NewLine()
	line.SetGlobalOptions(commonOpts("Forecast Plot for "+name, o, true)...)
	line.SetXAxis(dateAxis(dates))

	if actual != nil && len(actual.Points) > 0 {
		observed := make([]opts.LineData, n)
		for i := range observed {
			observed[i] = opts.LineData{Value: missing}
		}
		for i, p := range actual.Points {
			if i < n {
				observed[i] = opts.LineData{Value: plotValue(p.Value)}
			}
		}
		line.AddSeries("Actual", observed, charts.WithLineStyleOpts(opts.LineStyle{Color: colorActual, Width: 1}))
	}

	// The band is yhat_lower with the interval width stacked on top, filled.
	line.AddSeries("yhat_lower", floatLine(lower),
		charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBand, Width: 1}),
	).AddSeries(seriesInterval, floatLine(width),
		charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBand, Width: 1}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Color: colorBand, Opacity: 0.35}),
	).AddSeries("yhat", floatLine(yhat),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorForecast, Width: 2}),
	)
	return line, nil
}

// Components draws the model's additive parts, one chart each, on a single
// page.
func Components(fc *models.Forecast, name string, o Options) (*components.Page, error) {
	parts, err := ComponentParts(fc, name, o)
	if err != nil {
		return nil, err
	}
	return Page("Forecast Components for "+name, parts...), nil
}

// ComponentParts returns the component charts without wrapping them in a page.
func ComponentParts(fc *models.Forecast, name string, o Options) ([]components.Charter, error) {
	if fc == nil || len(fc.Rows) == 0 {
		return nil, emptyInput(PanelComponents)
	}

	n := len(fc.Rows)
	dates := make([]time.Time, n)
	trend := make([]float64, n)
	seasonal := make([]float64, n)
	event := make([]float64, n)
	hasEvent := false
	for i, r := range fc.Rows {
		dates[i] = r.Timestamp
		trend[i] = r.Trend
		seasonal[i] = r.Seasonality
		event[i] = r.Event
		if r.Event != 0 {
			hasEvent = true
		}
	}
	axis := dateAxis(dates)

	part := func(title, series string, values []float64) *charts.Line {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: title}),
			charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
			charts.WithXAxisOpts(opts.XAxis{Name: axisDate}),
			charts.WithYAxisOpts(opts.YAxis{Name: series}),
			initOpts(title, o),
		)
		line.SetXAxis(axis).AddSeries(series, floatLine(values),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorForecast}))
		return line
	}

	list := []components.Charter{
		part("Trend for "+name, "trend", trend),
		part("Seasonality for "+name, "seasonality", seasonal),
	}
	if hasEvent {
		list = append(list, part("Events for "+name, "event", event))
	}
	return list, nil
}
