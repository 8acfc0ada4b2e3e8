// Package models defines the request and response shapes of the HTTP API.
package models

import "time"

// BacktestRequest overrides parts of the configured backtest defaults.
// Nil pointer fields keep the server default.
type BacktestRequest struct {
	Tickers      []string `json:"tickers"`
	LookbackDays int      `json:"lookback_days"`

	EntryStart string `json:"entry_start,omitempty"` // "HH:MM"
	EntryEnd   string `json:"entry_end,omitempty"`
	ForcedExit string `json:"forced_exit,omitempty"`

	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TrailStart *float64 `json:"trail_start,omitempty"`
	TrailStop  *float64 `json:"trail_stop,omitempty"`
	Slippage   *float64 `json:"slippage,omitempty"`

	RequireVWAP  *bool `json:"require_vwap,omitempty"`
	RequireTrend *bool `json:"require_trend,omitempty"`
	RequireRSI   *bool `json:"require_rsi,omitempty"`
	RequireMACD  *bool `json:"require_macd,omitempty"`

	UseGapBounds *bool    `json:"use_gap_bounds,omitempty"`
	GapMin       *float64 `json:"gap_min,omitempty"`
	GapMax       *float64 `json:"gap_max,omitempty"`
}

// ScanRequest overrides parts of the configured scan defaults.
type ScanRequest struct {
	Tickers      []string `json:"tickers"`
	LookbackDays int      `json:"lookback_days"`
	TopN         int      `json:"top_n"`
	MinResults   int      `json:"min_results"`
}

// MarketQuote is one entry of the market snapshot panel. Value and
// ChangePct are nil when the quote could not be fetched.
type MarketQuote struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Value     *float64 `json:"value"`
	ChangePct *float64 `json:"change_pct"`
}

// MarketResponse is the market snapshot.
type MarketResponse struct {
	AsOf   time.Time     `json:"as_of"`
	Quotes []MarketQuote `json:"quotes"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code plus a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
