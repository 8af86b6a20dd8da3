package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stock-forecaster/internal/frame"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/security"
	"stock-forecaster/pkg/utils"
)

// YahooConfig configures the Yahoo Finance chart client.
type YahooConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Proxy     string
}

// YahooProvider implements Provider using the Yahoo Finance chart API.
type YahooProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    zerolog.Logger
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(cfg YahooConfig, logger zerolog.Logger) *YahooProvider {
	transport := &http.Transport{}
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			logger.Warn().Str("proxy", security.RedactURL(cfg.Proxy)).Msg("ignoring unparseable proxy")
		} else {
			transport.Proxy = http.ProxyURL(u)
			logger.Debug().Str("proxy", u.Redacted()).Msg("using proxy")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	return &YahooProvider{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		logger:    logging.WithProvider(logger, "yahoo"),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
// Price arrays are decoded as interface{} so nulls survive as nil.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string `json:"currency"`
				ExchangeName         string `json:"exchangeName"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch downloads daily bars between start (inclusive) and end (exclusive).
func (p *YahooProvider) Fetch(ctx context.Context, symbol string, start, end time.Time) (*frame.Frame, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history&includeAdjustedClose=true",
		p.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	began := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		logging.LogProviderCall(p.logger, symbol, 0, time.Since(began), err)
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logging.LogProviderCall(p.logger, symbol, resp.StatusCode, time.Since(began), err)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	// Unknown or delisted symbols come back as 404 with a "Not Found" error
	// document; that is an empty result, not a transport failure.
	if resp.StatusCode == http.StatusNotFound && decodeErr == nil &&
		chart.Chart.Error != nil && chart.Chart.Error.Code == "Not Found" {
		return frame.New(models.PriceColumns...), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 256))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}

	return chartToFrame(&chart)
}

func chartToFrame(chart *yahooChart) (*frame.Frame, error) {
	f := frame.New(models.PriceColumns...)
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return f, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: response has timestamps but no quote block")
	}
	quote := result.Indicators.Quote[0]
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range result.Timestamp {
		o := cell(quote.Open, i)
		h := cell(quote.High, i)
		l := cell(quote.Low, i)
		c := cell(quote.Close, i)
		if o == nil && h == nil && l == nil && c == nil {
			continue // skip null bars (holidays etc.)
		}
		ac := cell(adj, i)
		if adj == nil {
			ac = c
		}
		if err := f.Append(utils.DateOf(time.Unix(ts, 0)), o, h, l, c, ac, volumeCell(cell(quote.Volume, i))); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func cell(values []interface{}, i int) interface{} {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// volumeCell turns a JSON number into an int64 share count.
func volumeCell(v interface{}) interface{} {
	if n, ok := v.(float64); ok {
		return int64(n)
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
