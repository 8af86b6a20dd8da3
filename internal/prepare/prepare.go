// Package prepare turns a loaded price table into the two-column series the
// forecasting model consumes.
package prepare

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// Model-facing column names.
const (
	ColDS = "ds"
	ColY  = "y"
)

var timestampLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Preparer validates price tables. It holds no state besides its logger.
type Preparer struct {
	logger zerolog.Logger
}

// New creates a Preparer.
func New(logger zerolog.Logger) *Preparer {
	return &Preparer{logger: logger.With().Str("component", "prepare").Logger()}
}

// Prepare selects Date and Close, renames them to ds and y, and checks that
// every y is a finite number and every ds a date. The input series is not
// modified. Checks run in a fixed order so a table with several problems
// always reports the same one: column presence, dates, numeric coercion,
// nulls, and finally the shape of the value column.
func (p *Preparer) Prepare(series *models.PriceSeries) (*models.ModelInput, error) {
	var table *frame.Frame
	symbol := ""
	if series != nil {
		table = series.Table
		symbol = series.Symbol
	}
	if table == nil {
		table = frame.New()
	}

	for _, name := range []string{models.ColDate, models.ColClose} {
		if !table.Has(name) {
			return nil, &errors.MissingColumnError{Column: name}
		}
	}

	selected, err := table.Select(models.ColDate, models.ColClose)
	if err != nil {
		return nil, errors.Wrap(err, "selecting model columns")
	}
	renamed := selected.Rename(map[string]string{models.ColDate: ColDS, models.ColClose: ColY})
	dsCol, _ := renamed.Column(ColDS)
	yCols := renamed.Lookup(ColY)

	times := make([]time.Time, renamed.Len())
	for i, v := range dsCol.Values {
		ts, err := toTime(v)
		if err != nil {
			return nil, &errors.TimestampError{Column: ColDS, Row: i, Value: v, Err: err}
		}
		times[i] = ts
	}

	values := make([]float64, renamed.Len())
	missing := 0
	for c, col := range yCols {
		for i, v := range col.Values {
			if nested(v) {
				continue
			}
			f, kind, err := toFloat(v)
			if err != nil {
				return nil, &errors.NumericConversionError{Column: ColY, Kind: kind, Row: i, Value: v, Err: err}
			}
			if math.IsNaN(f) {
				missing++
			}
			if c == 0 {
				values[i] = f
			}
		}
	}
	if missing > 0 {
		return nil, &errors.MissingValueError{Column: ColY, Count: missing}
	}

	if err := checkShape(yCols); err != nil {
		return nil, err
	}

	input := &models.ModelInput{Symbol: symbol, Points: make([]models.Point, len(values))}
	for i := range values {
		input.Points[i] = models.Point{Timestamp: times[i], Value: values[i]}
	}

	p.logger.Debug().Str("symbol", symbol).Int("rows", len(input.Points)).Msg("series prepared")
	return input, nil
}

// checkShape rejects a value selection that is not a single flat column.
func checkShape(cols []frame.Column) error {
	if len(cols) > 1 {
		return &errors.StructuralTypeError{
			Column: ColY,
			Reason: fmt.Sprintf("selection yields %d columns named %q", len(cols), models.ColClose),
		}
	}
	for i, v := range cols[0].Values {
		if nested(v) {
			return &errors.StructuralTypeError{
				Column: ColY,
				Reason: fmt.Sprintf("row %d holds a nested %T", i, v),
			}
		}
	}
	return nil
}

func nested(v interface{}) bool {
	switch v.(type) {
	case []interface{}, []float64, []string, map[string]interface{}, *frame.Frame, frame.Column:
		return true
	}
	return false
}

func toTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, fmt.Errorf("zero time")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if ts, err := time.ParseInLocation(layout, s, utils.IndiaLocation); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date format")
	case nil:
		return time.Time{}, fmt.Errorf("missing date")
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

// toFloat coerces a cell. Nulls and empty strings become NaN so they can be
// counted as missing afterwards.
func toFloat(v interface{}) (float64, errors.NumericKind, error) {
	switch n := v.(type) {
	case nil:
		return math.NaN(), "", nil
	case float64:
		return finite(n, v)
	case float32:
		return finite(float64(n), v)
	case int:
		return float64(n), "", nil
	case int32:
		return float64(n), "", nil
	case int64:
		return float64(n), "", nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.Unparseable, err
		}
		return finite(f, v)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return math.NaN(), "", nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Unparseable, err
		}
		return finite(f, v)
	default:
		return 0, errors.TypeMismatch, fmt.Errorf("unsupported type %T", v)
	}
}

// finite rejects ±Inf. NaN passes through and is counted as missing.
func finite(f float64, v interface{}) (float64, errors.NumericKind, error) {
	if math.IsInf(f, 0) {
		return 0, errors.Unparseable, fmt.Errorf("infinite value %v", v)
	}
	return f, "", nil
}
