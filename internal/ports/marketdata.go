package ports

import (
	"context"
	"time"

	"forecaster/internal/domain"
)

// Quote is a latest-price snapshot for one symbol, used for the market
// indices overview.
type Quote struct {
	Symbol        string  // Source symbol (e.g. "^N225")
	Name          string  // Display name (e.g. "Nikkei 225")
	Last          float64 // Most recent close
	ChangePercent float64 // Percent change versus the prior close
}

// BarSource defines the interface for retrieving historical price bars.
// This abstraction decouples the simulation core from any concrete market
// data vendor.
//
// Implementations must distinguish "no data exists for this request"
// (wrap ErrNoData) from transport or parse failures (wrap
// ErrSourceUnavailable / ErrMalformedData); the simulation core skips the
// ticker either way, but callers may want to log or retry differently.
type BarSource interface {
	// GetIntradayBars retrieves fixed-interval intraday bars for a ticker,
	// ordered ascending by timestamp, covering [start, end].
	GetIntradayBars(ctx context.Context, ticker string, start, end time.Time, interval string) ([]domain.Bar, error)

	// GetDailyBars retrieves daily open/close bars for a ticker covering
	// [start, end], ordered ascending by date.
	GetDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyBar, error)
}

// QuoteSource retrieves latest-price snapshots for display symbols.
type QuoteSource interface {
	// GetQuote retrieves the latest close and percent change for a symbol.
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}
