package domain

import (
	"math"
	"time"
)

// Bar represents a single intraday price observation at a fixed interval.
type Bar struct {
	Time   time.Time // Bar timestamp, exchange-local
	Open   float64   // Opening price
	High   float64   // Highest price
	Low    float64   // Lowest price
	Close  float64   // Closing price
	Volume float64   // Traded volume
}

// DailyBar represents one day's open/close, used for previous-close and
// session-open lookups when deriving the opening gap.
type DailyBar struct {
	Date  string  // Calendar date, "2006-01-02"
	Open  float64 // Daily opening price
	Close float64 // Daily closing price
}

// Session holds one trading day's bars for one ticker, restricted to the
// exchange trading window.
type Session struct {
	Ticker      string
	Date        string  // Calendar date, "2006-01-02"
	Bars        []Bar   // Strictly time-ordered, all within the trading window
	PrevClose   float64 // Prior session's final close; NaN when unavailable
	SessionOpen float64 // This session's first open; NaN when unavailable
}

// GapFraction returns the relative difference between the session open and
// the previous session's close. NaN when either input is unavailable.
func (s *Session) GapFraction() float64 {
	if math.IsNaN(s.PrevClose) || math.IsNaN(s.SessionOpen) || s.PrevClose == 0 {
		return math.NaN()
	}
	return (s.SessionOpen - s.PrevClose) / s.PrevClose
}
