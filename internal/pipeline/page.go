package pipeline

import (
	"github.com/go-echarts/go-echarts/v2/components"

	"stock-forecaster/internal/charts"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// SectionKind tells the page what a section shows.
type SectionKind string

const (
	SectionRawTable      SectionKind = "raw-table"
	SectionForecastTable SectionKind = "forecast-table"
	SectionChart         SectionKind = "chart"
	SectionError         SectionKind = "error"
)

// Section is one block of the page, in display order.
type Section struct {
	Kind    SectionKind
	Title   string
	Panel   charts.Panel
	Table   *Table
	Err     error
	Message string
}

// Table is a formatted tail table.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Page is the outcome of one run.
type Page struct {
	Selection Selection
	Status    string
	Series    *models.PriceSeries
	Input     *models.ModelInput
	Forecast  *models.Forecast
	Sections  []Section

	// Halted is the stage that stopped the run, empty when it completed.
	Halted errors.Stage
	Err    error

	tailRows  int
	chartOpts charts.Options
}

func (p *Page) halt(stage errors.Stage, err error) {
	p.Halted = stage
	p.Err = err
	p.Sections = append(p.Sections, Section{
		Kind:    SectionError,
		Err:     err,
		Message: UserMessage(err, p.Selection.Stock.Symbol),
	})
}

func (p *Page) addTable(kind SectionKind, title string) {
	s := Section{Kind: kind, Title: title}
	if kind == SectionRawTable {
		s.Table = p.RawTable()
	} else {
		s.Table = p.ForecastTable()
	}
	p.Sections = append(p.Sections, s)
}

// addChart builds the chart once to surface its error on the page; the
// chart itself is rebuilt on demand by Chart.
func (p *Page) addChart(panel charts.Panel, title string) {
	s := Section{Kind: SectionChart, Title: title, Panel: panel}
	if _, err := p.Chart(panel); err != nil {
		s.Err = err
		s.Message = UserMessage(err, p.Selection.Stock.Symbol)
	}
	p.Sections = append(p.Sections, s)
}

// OK reports whether every stage completed.
func (p *Page) OK() bool {
	return p.Halted == ""
}

// Chart builds the chart of panel from the page's data. A panel whose
// inputs were never produced returns the error that halted the run.
func (p *Page) Chart(panel charts.Panel) (charts.Chart, error) {
	if p.Series == nil || (panel.NeedsForecast() && p.Forecast == nil) {
		return nil, p.haltedErr(panel)
	}

	name := p.Selection.Stock.Name
	var (
		chart charts.Chart
		err   error
	)
	switch panel {
	case charts.PanelOpenClose:
		chart, err = asChart(charts.OpenClose(p.Series, name, p.chartOpts))
	case charts.PanelCandlestick:
		chart, err = asChart(charts.Candlestick(p.Series, name, p.chartOpts))
	case charts.PanelClose:
		chart, err = asChart(charts.ClosePrice(p.Series, name, p.chartOpts))
	case charts.PanelForecast:
		chart, err = asChart(charts.ForecastPlot(p.Forecast, p.Input, name, p.chartOpts))
	case charts.PanelComponents:
		page, cerr := charts.Components(p.Forecast, name, p.chartOpts)
		if cerr != nil {
			return nil, cerr
		}
		chart = page
	default:
		return nil, errors.NewRenderError(string(panel), "unknown panel", nil)
	}
	if err != nil {
		return nil, err
	}
	return chart, nil
}

// Report bundles every chart that builds into one document. Panels that
// fail are left out and returned alongside.
func (p *Page) Report() (*components.Page, map[charts.Panel]error) {
	failed := make(map[charts.Panel]error)
	var list []components.Charter
	for _, panel := range charts.Panels {
		if p.Series == nil || (panel.NeedsForecast() && p.Forecast == nil) {
			failed[panel] = p.haltedErr(panel)
			continue
		}
		if panel == charts.PanelComponents {
			parts, err := charts.ComponentParts(p.Forecast, p.Selection.Stock.Name, p.chartOpts)
			if err != nil {
				failed[panel] = err
				continue
			}
			list = append(list, parts...)
			continue
		}
		c, err := p.Chart(panel)
		if err != nil {
			failed[panel] = err
			continue
		}
		if ch, ok := c.(components.Charter); ok {
			list = append(list, ch)
		}
	}
	return charts.Page(p.Selection.Stock.Name+" report", list...), failed
}

func (p *Page) haltedErr(panel charts.Panel) error {
	if p.Err != nil {
		return p.Err
	}
	return errors.NewRenderError(string(panel), "forecast was not computed", nil)
}

// asChart keeps a nil builder result from becoming a non-nil interface.
func asChart(c components.Charter, err error) (charts.Chart, error) {
	if err != nil {
		return nil, err
	}
	r, ok := c.(charts.Chart)
	if !ok {
		return nil, errors.NewRenderError(c.Type(), "chart cannot render", nil)
	}
	return r, nil
}

// RawTable formats the last rows of the price history.
func (p *Page) RawTable() *Table {
	if p.Series == nil {
		return nil
	}
	tail := p.Series.Table.Tail(p.tailRows)
	t := &Table{Columns: tail.Columns()}
	for i := 0; i < tail.Len(); i++ {
		row := tail.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = utils.FormatCell(v)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// ForecastTable formats the last forecast rows.
func (p *Page) ForecastTable() *Table {
	if p.Forecast == nil {
		return nil
	}
	t := &Table{Columns: []string{"ds", "yhat", "yhat_lower", "yhat_upper", "trend", "seasonality"}}
	for _, r := range p.Forecast.Tail(p.tailRows) {
		t.Rows = append(t.Rows, []string{
			utils.FormatDate(r.Timestamp),
			utils.FormatPrice(r.Yhat),
			utils.FormatPrice(r.YhatLower),
			utils.FormatPrice(r.YhatUpper),
			utils.FormatPrice(r.Trend),
			utils.FormatPrice(r.Seasonality),
		})
	}
	return t
}
