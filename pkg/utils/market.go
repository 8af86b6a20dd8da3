package utils

import (
	"time"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// DateOf returns midnight IST of the trading day t falls on.
func DateOf(t time.Time) time.Time {
	t = t.In(IndiaLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IndiaLocation)
}

// ParseDate parses a YYYY-MM-DD date as midnight IST.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, IndiaLocation)
}

// SameDay reports whether a and b fall on the same IST calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
