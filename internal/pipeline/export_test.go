package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-forecaster/internal/errors"
)

func TestWriteCSV(t *testing.T) {
	h := newHarness(history(t, 3, map[int]interface{}{1: nil}), nil, nil)
	sel, _ := h.dash.Select("Infosys", 1)
	page := h.dash.Run(context.Background(), sel)

	var raw bytes.Buffer
	require.NoError(t, page.WriteCSV(&raw, ExportRaw))
	lines := strings.Split(strings.TrimSpace(raw.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Date,Open,High,Low,Close,Adj Close,Volume", lines[0])
	assert.Equal(t, "2015-01-01,1000,1005,995,1000.5,1000,100", lines[1])
	assert.Equal(t, "2015-01-02,1001,1006,996,,1001,100", lines[2])

	// The null close stopped the run before forecasting.
	err := page.WriteCSV(&bytes.Buffer{}, ExportForecast)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = page.WriteCSV(&bytes.Buffer{}, "candles")
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestWriteForecastCSV(t *testing.T) {
	h := newHarness(history(t, 4, nil), nil, nil)
	sel, _ := h.dash.Select("Infosys", 1)
	page := h.dash.Run(context.Background(), sel)

	var buf bytes.Buffer
	require.NoError(t, page.WriteCSV(&buf, ExportForecast))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "ds,yhat,yhat_lower,yhat_upper,trend,seasonality,event", lines[0])
	assert.Len(t, lines, 1+4+365)
}
