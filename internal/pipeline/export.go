package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// Export table names.
const (
	ExportRaw      = "raw"
	ExportForecast = "forecast"
)

// RawRecord is one exported history row. Cells are written as they were
// received; nulls become empty fields.
type RawRecord struct {
	Date     string `csv:"Date"`
	Open     string `csv:"Open"`
	High     string `csv:"High"`
	Low      string `csv:"Low"`
	Close    string `csv:"Close"`
	AdjClose string `csv:"Adj Close"`
	Volume   string `csv:"Volume"`
}

// ForecastRecord is one exported forecast row.
type ForecastRecord struct {
	Date        string  `csv:"ds"`
	Yhat        float64 `csv:"yhat"`
	YhatLower   float64 `csv:"yhat_lower"`
	YhatUpper   float64 `csv:"yhat_upper"`
	Trend       float64 `csv:"trend"`
	Seasonality float64 `csv:"seasonality"`
	Event       float64 `csv:"event"`
}

// RawRecords returns the full history in export form.
func (p *Page) RawRecords() []RawRecord {
	if p.Series == nil {
		return nil
	}
	out := make([]RawRecord, 0, p.Series.Len())
	for _, rec := range p.Series.Table.Records() {
		out = append(out, RawRecord{
			Date:     csvCell(rec[models.ColDate]),
			Open:     csvCell(rec[models.ColOpen]),
			High:     csvCell(rec[models.ColHigh]),
			Low:      csvCell(rec[models.ColLow]),
			Close:    csvCell(rec[models.ColClose]),
			AdjClose: csvCell(rec[models.ColAdjClose]),
			Volume:   csvCell(rec[models.ColVolume]),
		})
	}
	return out
}

// ForecastRecords returns every forecast row in export form.
func (p *Page) ForecastRecords() []ForecastRecord {
	if p.Forecast == nil {
		return nil
	}
	out := make([]ForecastRecord, len(p.Forecast.Rows))
	for i, r := range p.Forecast.Rows {
		out[i] = ForecastRecord{
			Date:        utils.FormatDate(r.Timestamp),
			Yhat:        r.Yhat,
			YhatLower:   r.YhatLower,
			YhatUpper:   r.YhatUpper,
			Trend:       r.Trend,
			Seasonality: r.Seasonality,
			Event:       r.Event,
		}
	}
	return out
}

// WriteCSV writes the named table. A table the run never produced returns
// the error that halted it.
func (p *Page) WriteCSV(w io.Writer, table string) error {
	switch table {
	case ExportRaw:
		if p.Series == nil {
			return p.haltedErr("")
		}
		return gocsv.Marshal(p.RawRecords(), w)
	case ExportForecast:
		if p.Forecast == nil {
			if p.Err != nil {
				return p.Err
			}
			return errors.New("forecast was not computed")
		}
		return gocsv.Marshal(p.ForecastRecords(), w)
	default:
		return errors.NewValidationError("table", table, fmt.Sprintf("must be %q or %q", ExportRaw, ExportForecast), nil)
	}
}

func csvCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case time.Time:
		return utils.FormatDate(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(c, 10)
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
