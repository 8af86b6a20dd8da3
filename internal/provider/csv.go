package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/models"
	"stock-forecaster/pkg/utils"
)

// CSVProvider serves history from <dir>/<SYMBOL>.csv files laid out like a
// Yahoo download (Date,Open,High,Low,Close,Adj Close,Volume). It is meant for
// offline runs. Cells that do not parse are kept as text so that the series
// preparer reports them.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider reading from dir.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Name() string { return "csv" }

type csvRow struct {
	Date     string `csv:"Date"`
	Open     string `csv:"Open"`
	High     string `csv:"High"`
	Low      string `csv:"Low"`
	Close    string `csv:"Close"`
	AdjClose string `csv:"Adj Close"`
	Volume   string `csv:"Volume"`
}

// Fetch reads the symbol's file and keeps rows with start <= date < end.
// A missing file is an empty result.
func (p *CSVProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return frame.New(models.PriceColumns...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv open: %w", err)
	}
	defer file.Close()

	var rows []csvRow
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return nil, fmt.Errorf("csv decode %s: %w", path, err)
	}

	f := frame.New(models.PriceColumns...)
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var date interface{} = r.Date
		if d, err := utils.ParseDate(strings.TrimSpace(r.Date)); err == nil {
			if d.Before(utils.DateOf(start)) || !d.Before(utils.DateOf(end)) {
				continue
			}
			date = d
		}
		if err := f.Append(date,
			numericCell(r.Open), numericCell(r.High), numericCell(r.Low),
			numericCell(r.Close), numericCell(r.AdjClose), volumeText(r.Volume)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func numericCell(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func volumeText(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	return numericCell(s)
}
