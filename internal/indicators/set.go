package indicators

import "forecaster/internal/domain"

// Config holds the lookback windows for the per-session indicator set.
type Config struct {
	TrendPeriod    int // EMA window for the short trend average (e.g. 5)
	MomentumPeriod int // RSI window (e.g. 14)
	MACDFast       int // Fast EMA window for the histogram (e.g. 12)
	MACDSlow       int // Slow EMA window for the histogram (e.g. 26)
	MACDSignal     int // Signal EMA window for the histogram (e.g. 9)
}

// DefaultConfig returns the standard indicator windows.
func DefaultConfig() Config {
	return Config{
		TrendPeriod:    5,
		MomentumPeriod: 14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
	}
}

// Set holds the per-bar indicator series for one session. Each slice is
// parallel to the session's bars; warm-up entries are NaN.
type Set struct {
	TrendAvg  []float64 // Short EMA of close
	Momentum  []float64 // Wilder RSI, bounded 0-100
	TrendDiff []float64 // MACD histogram
	VWAP      []float64 // Session-cumulative VWAP
}

// Compute derives the full indicator set for one session's bars. An empty
// bar sequence yields a set of empty series; never fails.
func Compute(bars []domain.Bar, cfg Config) Set {
	closes := Closes(bars)
	return Set{
		TrendAvg:  EMA(closes, cfg.TrendPeriod),
		Momentum:  RSI(closes, cfg.MomentumPeriod),
		TrendDiff: MACDHist(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		VWAP:      SessionVWAP(bars),
	}
}
