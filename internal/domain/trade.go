package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Trade represents one completed round-trip within a single session.
type Trade struct {
	Ticker      string
	EntryTime   time.Time    // Timestamp of the entry bar
	EntryPrice  float64      // Fill price including slippage
	ExitTime    time.Time    // Timestamp of the exit bar
	ExitPrice   float64      // Fill price including slippage
	Reason      ExitReason   // Why the position was closed
	PNL         float64      // Signed return fraction (exit-entry)/entry
	GapFraction float64      // The session's opening gap; NaN when unknown
	EntryVWAP   float64      // Session VWAP at the entry bar; NaN when undefined
	Pattern     PatternLabel // Qualitative setup classification at entry
}

// tradeJSON is the wire shape of a Trade. GapFraction and EntryVWAP use
// null for their NaN sentinels, which JSON cannot represent directly.
type tradeJSON struct {
	Ticker      string       `json:"ticker"`
	EntryTime   time.Time    `json:"entry_time"`
	EntryPrice  float64      `json:"entry_price"`
	ExitTime    time.Time    `json:"exit_time"`
	ExitPrice   float64      `json:"exit_price"`
	Reason      ExitReason   `json:"reason"`
	PNL         float64      `json:"pnl"`
	GapFraction *float64     `json:"gap_fraction"`
	EntryVWAP   *float64     `json:"entry_vwap"`
	Pattern     PatternLabel `json:"pattern"`
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func floatOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// MarshalJSON implements json.Marshaler.
func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(tradeJSON{
		Ticker:      t.Ticker,
		EntryTime:   t.EntryTime,
		EntryPrice:  t.EntryPrice,
		ExitTime:    t.ExitTime,
		ExitPrice:   t.ExitPrice,
		Reason:      t.Reason,
		PNL:         t.PNL,
		GapFraction: nullableFloat(t.GapFraction),
		EntryVWAP:   nullableFloat(t.EntryVWAP),
		Pattern:     t.Pattern,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Trade) UnmarshalJSON(data []byte) error {
	var w tradeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.Ticker = w.Ticker
	t.EntryTime = w.EntryTime
	t.EntryPrice = w.EntryPrice
	t.ExitTime = w.ExitTime
	t.ExitPrice = w.ExitPrice
	t.Reason = w.Reason
	t.PNL = w.PNL
	t.GapFraction = floatOrNaN(w.GapFraction)
	t.EntryVWAP = floatOrNaN(w.EntryVWAP)
	t.Pattern = w.Pattern
	return nil
}
