// Package charts builds the dashboard's chart documents with go-echarts.
// Every builder checks its own input and returns a RenderError scoped to its
// panel, so one failing chart never prevents the others from rendering.
package charts

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// Panel identifies one chart on the page.
type Panel string

const (
	PanelOpenClose   Panel = "open-close"
	PanelCandlestick Panel = "candlestick"
	PanelClose       Panel = "close"
	PanelForecast    Panel = "forecast"
	PanelComponents  Panel = "components"
)

// Panels lists the chart panels in page order.
var Panels = []Panel{PanelOpenClose, PanelCandlestick, PanelClose, PanelForecast, PanelComponents}

// ParsePanel maps a URL segment to a Panel.
func ParsePanel(s string) (Panel, bool) {
	for _, p := range Panels {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// NeedsForecast reports whether the panel is drawn from forecast output.
func (p Panel) NeedsForecast() bool {
	return p == PanelForecast || p == PanelComponents
}

// Colours follow the dashboard's legend conventions.
const (
	colorOpen     = "blue"
	colorClose    = "orange"
	colorCurrent  = "purple"
	colorUp       = "green"
	colorDown     = "red"
	colorForecast = "#0072B2"
	colorBand     = "#7fb2d8"
	colorActual   = "black"
)

const (
	axisDate  = "Date"
	axisPrice = "Price (INR)"
)

// missing is how echarts marks a gap in a series.
const missing = "-"

// Chart is anything that renders to a standalone HTML document.
type Chart interface {
	Render(w io.Writer) error
}

// Options tune the chart frame.
type Options struct {
	Width  string
	Height string
}

// DefaultOptions fill an iframe on the dashboard page.
var DefaultOptions = Options{Width: "100%", Height: "480px"}

// Render writes chart into w, scoping any failure to panel.
func Render(w io.Writer, panel Panel, chart Chart) error {
	if err := chart.Render(w); err != nil {
		return errors.NewRenderError(string(panel), "rendering chart", err)
	}
	return nil
}

// emptyInput is the per-panel guard against an empty series.
func emptyInput(panel Panel) error {
	return errors.NewRenderError(string(panel),
		"No data available to plot. Please check the stock selection or date range.", nil)
}

func initOpts(title string, o Options) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     o.Width,
		Height:    o.Height,
	})
}

func commonOpts(title string, o Options, slider bool) []charts.GlobalOpts {
	global := []charts.GlobalOpts{
		initOpts(title, o),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: axisDate}),
		charts.WithYAxisOpts(opts.YAxis{Name: axisPrice}),
	}
	if slider {
		global = append(global, charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}))
	}
	return global
}

func dateAxis(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = utils.FormatDate(d)
	}
	return out
}

func lineData(values []interface{}) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: plotValue(v)}
	}
	return out
}

func floatLine(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: plotValue(v)}
	}
	return out
}

// plotValue keeps finite numbers and turns anything else into a gap.
func plotValue(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return missing
		}
		return n
	case int64:
		return n
	case int:
		return n
	default:
		return missing
	}
}

func seriesDates(series *models.PriceSeries, panel Panel) ([]time.Time, error) {
	if series.Len() == 0 {
		return nil, emptyInput(panel)
	}
	col, ok := series.Table.Column(models.ColDate)
	if !ok {
		return nil, errors.NewRenderError(string(panel), fmt.Sprintf("column %q is missing", models.ColDate), nil)
	}
	dates := make([]time.Time, len(col.Values))
	for i, v := range col.Values {
		ts, ok := v.(time.Time)
		if !ok {
			return nil, errors.NewRenderError(string(panel), fmt.Sprintf("row %d has no date", i), nil)
		}
		dates[i] = ts
	}
	return dates, nil
}

func seriesColumn(series *models.PriceSeries, panel Panel, name string) ([]interface{}, error) {
	col, ok := series.Table.Column(name)
	if !ok {
		return nil, errors.NewRenderError(string(panel), fmt.Sprintf("column %q is missing", name), nil)
	}
	return col.Values, nil
}

// Page bundles several charts into one HTML document.
func Page(title string, list ...components.Charter) *components.Page {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(list...)
	return page
}
