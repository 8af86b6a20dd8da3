// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	// Format with 2 decimal places
	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	formatted := formatIndianNumber(intPart)

	result := "₹" + formatted + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in Indian numbering system.
// Indian system: 1,00,00,000 (1 crore) vs Western: 10,000,000
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPrice formats a price with two decimals and Indian digit grouping.
func FormatPrice(price float64) string {
	if math.IsNaN(price) {
		return "NaN"
	}
	negative := price < 0
	if negative {
		price = -price
	}
	parts := strings.Split(fmt.Sprintf("%.2f", price), ".")
	out := formatIndianNumber(parts[0]) + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}

// FormatQuantity formats a quantity with Indian numbering.
func FormatQuantity(qty int64) string {
	if qty < 0 {
		return "-" + formatIndianNumber(fmt.Sprintf("%d", -qty))
	}
	return formatIndianNumber(fmt.Sprintf("%d", qty))
}

// FormatDate formats a trading date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatCell renders a loosely typed table cell for display.
func FormatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case time.Time:
		return FormatDate(x)
	case float64:
		return FormatPrice(x)
	case int64:
		return FormatQuantity(x)
	case int:
		return FormatQuantity(int64(x))
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
