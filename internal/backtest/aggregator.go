// Package backtest runs the session pipeline (partition, indicators,
// simulate) across tickers and date ranges and aggregates the completed
// trades into summary statistics and diagnostic breakdowns.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"forecaster/internal/domain"
	"forecaster/internal/indicators"
	"forecaster/internal/ports"
	"forecaster/internal/session"
	"forecaster/internal/simulator"
)

// Config holds everything one aggregation run needs beyond the ticker list.
type Config struct {
	Entry      simulator.EntryConfig
	Exit       simulator.ExitConfig
	Indicators indicators.Config
	Window     session.Window
	Interval   string    // Bar interval, e.g. "5m"
	Start      time.Time // Range start, inclusive
	End        time.Time // Range end, inclusive
}

// Validate rejects inconsistent configuration before any data is fetched.
func (c Config) Validate() error {
	if err := simulator.Validate(c.Entry, c.Exit); err != nil {
		return err
	}
	if c.Interval == "" {
		return fmt.Errorf("%w: bar interval is required", ports.ErrConfigurationError)
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("%w: end date precedes start date", ports.ErrConfigurationError)
	}
	return nil
}

// Result is the aggregate outcome of one backtest run. Built once,
// never mutated afterwards.
type Result struct {
	Trades         []domain.Trade   `json:"trades"`
	Summary        Stats            `json:"summary"`
	ByTicker       map[string]Stats `json:"by_ticker"`
	ByGap          []Bucket         `json:"by_gap"`
	ByVWAP         []Bucket         `json:"by_vwap_deviation"`
	ByEntryTime    []Bucket         `json:"by_entry_time"`
	ByPattern      []Bucket         `json:"by_pattern"`
	Highlights     Highlights       `json:"highlights"`
	SkippedTickers []string         `json:"skipped_tickers,omitempty"`
}

// Highlights points at the strongest bucket of each diagnostic breakdown.
type Highlights struct {
	BestGap       *Bucket `json:"best_gap,omitempty"`
	BestVWAP      *Bucket `json:"best_vwap_deviation,omitempty"`
	BestEntryTime *Bucket `json:"best_entry_time,omitempty"`
	BestPattern   *Bucket `json:"best_pattern,omitempty"`
}

// Aggregator runs backtests against a bar source.
type Aggregator struct {
	source ports.BarSource
	logger ports.Logger
}

// New creates an Aggregator.
func New(source ports.BarSource, logger ports.Logger) *Aggregator {
	return &Aggregator{source: source, logger: logger}
}

// Run backtests every ticker over the configured range and aggregates the
// trades. Tickers whose data fetch fails or yields no usable bars are
// skipped with a warning; they never fail the run. When no ticker produces
// a trade the error is ports.ErrNoTrades, distinguishing "ran fine, found
// nothing" from a malfunction.
func (a *Aggregator) Run(ctx context.Context, tickers []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var all []domain.Trade
	byTicker := make(map[string][]domain.Trade)
	var skipped []string

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
		}

		trades, err := a.RunTicker(ctx, ticker, cfg)
		if err != nil {
			a.logger.Warn(ctx, "skipping ticker", map[string]interface{}{
				"ticker": ticker,
				"reason": err.Error(),
			})
			skipped = append(skipped, ticker)
			continue
		}
		if len(trades) > 0 {
			byTicker[ticker] = trades
			all = append(all, trades...)
		}
	}

	if len(all) == 0 {
		return nil, ports.ErrNoTrades
	}
	return buildResult(all, byTicker, skipped), nil
}

// RunTicker backtests a single ticker and returns its completed trades in
// session order. Sessions run independently; each yields at most one trade.
func (a *Aggregator) RunTicker(ctx context.Context, ticker string, cfg Config) ([]domain.Trade, error) {
	bars, err := a.source.GetIntradayBars(ctx, ticker, cfg.Start, cfg.End, cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("intraday bars for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("intraday bars for %s: %w", ticker, ports.ErrNoData)
	}

	daily, err := a.source.GetDailyBars(ctx, ticker, cfg.Start, cfg.End)
	if err != nil {
		// Gap lookups degrade to undefined; the simulation still runs.
		a.logger.Warn(ctx, "daily bars unavailable, gap fractions undefined", map[string]interface{}{
			"ticker": ticker,
			"reason": err.Error(),
		})
		daily = nil
	}

	return SimulateBars(ticker, bars, daily, cfg), nil
}

// SimulateBars runs the pure in-memory pipeline over pre-fetched bars.
// Used directly by the offline CSV runner.
func SimulateBars(ticker string, bars []domain.Bar, daily []domain.DailyBar, cfg Config) []domain.Trade {
	var trades []domain.Trade
	for _, s := range session.Partition(ticker, bars, cfg.Window, daily) {
		ind := indicators.Compute(s.Bars, cfg.Indicators)
		if trade := simulator.Run(&s, ind, cfg.Entry, cfg.Exit); trade != nil {
			trades = append(trades, *trade)
		}
	}
	return trades
}

// BuildResult aggregates pre-computed trades into a Result, grouping the
// per-ticker stats from the trades themselves. Used by the offline CSV
// runner, which bypasses Run.
func BuildResult(all []domain.Trade) (*Result, error) {
	if len(all) == 0 {
		return nil, ports.ErrNoTrades
	}
	byTicker := make(map[string][]domain.Trade)
	for _, tr := range all {
		byTicker[tr.Ticker] = append(byTicker[tr.Ticker], tr)
	}
	return buildResult(all, byTicker, nil), nil
}

func buildResult(all []domain.Trade, byTicker map[string][]domain.Trade, skipped []string) *Result {
	res := &Result{
		Trades:         all,
		Summary:        ComputeStats(all),
		ByTicker:       make(map[string]Stats, len(byTicker)),
		ByGap:          BucketByGap(all),
		ByVWAP:         BucketByVWAPDeviation(all),
		ByEntryTime:    BucketByEntryTime(all),
		ByPattern:      BucketByPattern(all),
		SkippedTickers: skipped,
	}
	res.Highlights = Highlights{
		BestGap:       BestBucket(res.ByGap),
		BestVWAP:      BestBucket(res.ByVWAP),
		BestEntryTime: BestBucket(res.ByEntryTime),
		BestPattern:   BestBucket(res.ByPattern),
	}
	for ticker, trades := range byTicker {
		res.ByTicker[ticker] = ComputeStats(trades)
	}
	sort.Strings(res.SkippedTickers)
	return res
}
