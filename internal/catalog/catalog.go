// Package catalog holds the fixed list of stocks offered for forecasting.
package catalog

import (
	"strings"

	"stock-forecaster/internal/models"
)

// Stock is one selectable company.
type Stock struct {
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	Exchange models.Exchange `json:"exchange"`
}

// stocks is ordered; the order is the order shown to the user.
var stocks = []Stock{
	{"Reliance Industries", "RELIANCE.NS", models.NSE},
	{"Tata Consultancy Services", "TCS.NS", models.NSE},
	{"HDFC Bank", "HDFCBANK.NS", models.NSE},
	{"Bharti Airtel", "BHARTIARTL.NS", models.NSE},
	{"ICICI Bank", "ICICIBANK.NS", models.NSE},
	{"Infosys", "INFY.NS", models.NSE},
	{"State Bank Of India", "SBIN.NS", models.NSE},
	{"Hindustan Unilever", "HINDUNILVR.NS", models.NSE},
	{"ITC", "ITC.NS", models.NSE},
	{"Life Insurance Corporation", "LIC.NS", models.NSE},
	{"HCL Technologies", "HCLTECH.NS", models.NSE},
	{"Larsen & Toubro", "LT.NS", models.NSE},
	{"Bajaj Finance", "BAJFINANCE.NS", models.NSE},
	{"Sun Pharmaceutical Industries", "SUNPHARMA.NS", models.NSE},
	{"Mahindra & Mahindra", "M&M.NS", models.NSE},
	{"Maruti Suzuki", "MARUTI.NS", models.NSE},
	{"Kotak Mahindra Bank", "KOTAKBANK.NS", models.NSE},
	{"Oil And Natural Gas Corporation", "ONGC.NS", models.NSE},
	{"Axis Bank", "AXISBANK.NS", models.NSE},
	{"UltraTech Cement", "ULTRACEMCO.NS", models.NSE},
}

// All returns a copy of the catalog in display order.
func All() []Stock {
	out := make([]Stock, len(stocks))
	copy(out, stocks)
	return out
}

// Names returns the display names in order.
func Names() []string {
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.Name
	}
	return out
}

// Default returns the first stock, the initial selection.
func Default() Stock {
	return stocks[0]
}

// Lookup finds a stock by exact display name.
func Lookup(name string) (Stock, bool) {
	for _, s := range stocks {
		if s.Name == name {
			return s, true
		}
	}
	return Stock{}, false
}

// BySymbol finds a stock by ticker symbol, case-insensitively.
func BySymbol(symbol string) (Stock, bool) {
	for _, s := range stocks {
		if strings.EqualFold(s.Symbol, symbol) {
			return s, true
		}
	}
	return Stock{}, false
}

// Resolve accepts either a display name (case-insensitive) or a ticker symbol.
// A bare NSE code such as "INFY" resolves to "INFY.NS".
func Resolve(query string) (Stock, bool) {
	q := strings.TrimSpace(query)
	if s, ok := Lookup(q); ok {
		return s, true
	}
	for _, s := range stocks {
		if strings.EqualFold(s.Name, q) {
			return s, true
		}
	}
	if s, ok := BySymbol(q); ok {
		return s, true
	}
	return BySymbol(q + ".NS")
}
