package charts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, utils.IndiaLocation)

func priceSeries(t *testing.T, n int) *models.PriceSeries {
	t.Helper()
	f := frame.New(models.PriceColumns...)
	for i := 0; i < n; i++ {
		p := 100 + float64(i)
		require.NoError(t, f.Append(day0.AddDate(0, 0, i), p, p+2, p-2, p+1, p+1, int64(10)))
	}
	return &models.PriceSeries{Symbol: "INFY.NS", Table: f}
}

func forecastOf(n int) *models.Forecast {
	fc := &models.Forecast{Symbol: "INFY.NS", History: n / 2}
	for i := 0; i < n; i++ {
		fc.Rows = append(fc.Rows, models.ForecastRow{
			Timestamp: day0.AddDate(0, 0, i),
			Yhat:      float64(i), YhatLower: float64(i) - 1, YhatUpper: float64(i) + 1,
			Trend: float64(i), Seasonality: 0.5,
		})
	}
	return fc
}

func render(t *testing.T, panel Panel, c Chart) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, panel, c))
	return buf.String()
}

func TestPriceChartsRender(t *testing.T) {
	series := priceSeries(t, 10)

	oc, err := OpenClose(series, "Infosys", DefaultOptions)
	require.NoError(t, err)
	html := render(t, PanelOpenClose, oc)
	assert.Contains(t, html, "Stock Open")
	assert.Contains(t, html, "Stock Close")
	assert.Contains(t, html, "2024-01-10")

	kl, err := Candlestick(series, "Infosys", DefaultOptions)
	require.NoError(t, err)
	assert.Contains(t, render(t, PanelCandlestick, kl), "Candlestick Chart for Infosys")

	cp, err := ClosePrice(series, "Infosys", DefaultOptions)
	require.NoError(t, err)
	assert.Contains(t, render(t, PanelClose, cp), "Current Price")
}

func TestForecastChartsRender(t *testing.T) {
	fc := forecastOf(20)
	actual := &models.ModelInput{Points: []models.Point{{Timestamp: day0, Value: 1}}}

	line, err := ForecastPlot(fc, actual, "Infosys", DefaultOptions)
	require.NoError(t, err)
	html := render(t, PanelForecast, line)
	assert.Contains(t, html, "Actual")
	assert.Contains(t, html, seriesInterval)

	// Actual, yhat_lower, the filled interval stacked on it, yhat.
	require.Len(t, line.MultiSeries, 4)
	lower, band := line.MultiSeries[1], line.MultiSeries[2]
	assert.Equal(t, "yhat_lower", lower.Name)
	assert.Equal(t, seriesInterval, band.Name)
	assert.Equal(t, bandStack, lower.Stack)
	assert.Equal(t, bandStack, band.Stack)
	assert.Nil(t, lower.AreaStyle)
	require.NotNil(t, band.AreaStyle)
	first := band.Data.([]opts.LineData)[0]
	assert.Equal(t, 2.0, first.Value)

	page, err := Components(fc, "Infosys", DefaultOptions)
	require.NoError(t, err)
	html = render(t, PanelComponents, page)
	assert.Contains(t, html, "Trend for Infosys")
	assert.NotContains(t, html, "Events for Infosys")
}

func TestEmptyInputIsScopedRenderError(t *testing.T) {
	empty := &models.PriceSeries{Table: frame.New(models.PriceColumns...)}

	checks := map[Panel]error{}
	_, checks[PanelOpenClose] = OpenClose(empty, "X", DefaultOptions)
	_, checks[PanelCandlestick] = Candlestick(empty, "X", DefaultOptions)
	_, checks[PanelClose] = ClosePrice(empty, "X", DefaultOptions)
	_, checks[PanelForecast] = ForecastPlot(&models.Forecast{}, nil, "X", DefaultOptions)
	_, checks[PanelComponents] = Components(nil, "X", DefaultOptions)

	for panel, err := range checks {
		var renderErr *errors.RenderError
		require.True(t, errors.As(err, &renderErr), "panel %s: %v", panel, err)
		assert.Equal(t, string(panel), renderErr.Panel)
		assert.True(t, strings.HasPrefix(renderErr.Reason, "No data available to plot"))
	}
}

func TestCandlestickSkipsIncompleteBars(t *testing.T) {
	series := priceSeries(t, 2)
	require.NoError(t, series.Table.Append(day0.AddDate(0, 0, 2), nil, nil, nil, nil, nil, nil))

	_, err := Candlestick(series, "X", DefaultOptions)
	assert.NoError(t, err)

	onlyGaps := &models.PriceSeries{Table: frame.New(models.PriceColumns...)}
	require.NoError(t, onlyGaps.Table.Append(day0, nil, nil, nil, nil, nil, nil))
	_, err = Candlestick(onlyGaps, "X", DefaultOptions)
	assert.True(t, errors.Is(err, errors.ErrRender))
}

func TestParsePanel(t *testing.T) {
	p, ok := ParsePanel("candlestick")
	assert.True(t, ok)
	assert.Equal(t, PanelCandlestick, p)
	assert.False(t, p.NeedsForecast())
	assert.True(t, PanelComponents.NeedsForecast())

	_, ok = ParsePanel("pie")
	assert.False(t, ok)
}
