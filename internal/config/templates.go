package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stock Forecaster Configuration

[server]
# Dashboard listen address
addr = ":8501"
read_timeout = "30s"
# Model fitting happens inside the request; keep this generous
write_timeout = "5m"

[data]
# "yahoo" downloads from the chart API; "csv" reads <csv_dir>/<SYMBOL>.csv
provider = "yahoo"
# csv_dir = "~/.config/stock-forecaster/csv"
# First day of downloaded history (YYYY-MM-DD). The last day is always today.
start_date = "2015-01-01"
# Yahoo Finance chart API host
base_url = "https://query1.finance.yahoo.com"
timeout = "30s"
user_agent = "Mozilla/5.0"
# Optional HTTP proxy, e.g. "http://127.0.0.1:8080"
proxy = ""
# Stop calling the provider after this many consecutive failures,
# and try again once the cooldown has passed
breaker_failures = 5
breaker_cooldown = "30s"

[cache]
# Keep downloaded candles in SQLite and reuse them for the rest of the trading day
persist = true
# db_path = "~/.config/stock-forecaster/candles.db"

[forecast]
# Horizon slider bounds in years (one year = 365 days)
min_years = 1
max_years = 5
# Rows shown in the raw data and forecast tables
tail_rows = 5

[ui]
title = "Stock Price Prediction App"
currency = "INR"
color_enabled = true

[logging]
# debug, info, warn, error
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
