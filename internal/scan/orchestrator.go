// Package scan ranks a ticker universe by backtest expectancy to build a
// watch-list: a strict pass first, then a relaxed pass over the remainder
// when too few tickers qualify.
package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"forecaster/internal/backtest"
	"forecaster/internal/ports"
)

// Config controls the two-pass scan.
type Config struct {
	Strict  backtest.Config // First pass: full rule set
	Relaxed backtest.Config // Second pass: wider window, fewer predicates

	MinResults       int     // Strict qualifiers below this trigger the relaxed pass
	TopN             int     // Ranked list cap
	StrictThreshold  float64 // Strict pass requires expectancy strictly above this
	RelaxedThreshold float64 // Relaxed pass admits expectancy at or above this
	Workers          int     // Ticker-level parallelism; 0 means a sensible default
}

// Validate rejects inconsistent scan configuration before any data is
// fetched.
func (c Config) Validate() error {
	if err := c.Strict.Validate(); err != nil {
		return fmt.Errorf("strict config: %w", err)
	}
	if err := c.Relaxed.Validate(); err != nil {
		return fmt.Errorf("relaxed config: %w", err)
	}
	if c.MinResults <= 0 {
		return fmt.Errorf("%w: min_results must be positive", ports.ErrConfigurationError)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive", ports.ErrConfigurationError)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative", ports.ErrConfigurationError)
	}
	return nil
}

// Candidate is one ranked watch-list entry.
type Candidate struct {
	Ticker     string  `json:"ticker"`
	Expectancy float64 `json:"expectancy"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
	Relaxed    bool    `json:"relaxed"` // Qualified via the relaxed pass
}

// Orchestrator runs the scan against an Aggregator.
type Orchestrator struct {
	agg    *backtest.Aggregator
	logger ports.Logger
}

// New creates an Orchestrator.
func New(agg *backtest.Aggregator, logger ports.Logger) *Orchestrator {
	return &Orchestrator{agg: agg, logger: logger}
}

// Run scans the universe and returns the ranked top-N candidates.
//
// Pass one backtests every ticker under the strict rules and keeps those
// with expectancy strictly above the strict threshold. When fewer than
// MinResults qualify, pass two re-runs the remaining tickers under the
// relaxed rules and admits those at or above the relaxed threshold.
// Ranking is by expectancy descending, ties broken by higher trade count,
// then ticker code ascending. Returns ports.ErrNoCandidates when both
// passes produce nothing.
func (o *Orchestrator) Run(ctx context.Context, universe []string, cfg Config) ([]Candidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	strictStats := o.runPass(ctx, universe, cfg.Strict, cfg.Workers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
	}

	var candidates []Candidate
	var remainder []string
	for _, ticker := range universe {
		st, ok := strictStats[ticker]
		if ok && st.Expectancy > cfg.StrictThreshold {
			candidates = append(candidates, Candidate{
				Ticker:     ticker,
				Expectancy: st.Expectancy,
				TradeCount: st.TradeCount,
				WinRate:    st.WinRate,
			})
			continue
		}
		remainder = append(remainder, ticker)
	}

	if len(candidates) < cfg.MinResults && len(remainder) > 0 {
		o.logger.Info(ctx, "strict pass below target, relaxing rules", map[string]interface{}{
			"strict_qualifiers": len(candidates),
			"min_results":       cfg.MinResults,
			"remainder":         len(remainder),
		})
		relaxedStats := o.runPass(ctx, remainder, cfg.Relaxed, cfg.Workers)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, err)
		}
		for _, ticker := range remainder {
			st, ok := relaxedStats[ticker]
			if ok && st.Expectancy >= cfg.RelaxedThreshold {
				candidates = append(candidates, Candidate{
					Ticker:     ticker,
					Expectancy: st.Expectancy,
					TradeCount: st.TradeCount,
					WinRate:    st.WinRate,
					Relaxed:    true,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil, ports.ErrNoCandidates
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Expectancy != b.Expectancy {
			return a.Expectancy > b.Expectancy
		}
		if a.TradeCount != b.TradeCount {
			return a.TradeCount > b.TradeCount
		}
		return a.Ticker < b.Ticker
	})
	if len(candidates) > cfg.TopN {
		candidates = candidates[:cfg.TopN]
	}
	return candidates, nil
}

// runPass backtests each ticker independently on a bounded worker pool.
// Tickers that fail or trade nothing are simply absent from the result;
// cancellation is honoured between tickers, never mid-session.
func (o *Orchestrator) runPass(ctx context.Context, tickers []string, cfg backtest.Config, workers int) map[string]backtest.Stats {
	if workers <= 0 {
		workers = 4
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	results := make(map[string]backtest.Stats, len(tickers))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				if ctx.Err() != nil {
					continue
				}
				trades, err := o.agg.RunTicker(ctx, ticker, cfg)
				if err != nil {
					o.logger.Warn(ctx, "scan pass skipping ticker", map[string]interface{}{
						"ticker": ticker,
						"reason": err.Error(),
					})
					continue
				}
				if len(trades) == 0 {
					continue
				}
				st := backtest.ComputeStats(trades)
				mu.Lock()
				results[ticker] = st
				mu.Unlock()
			}
		}()
	}

	for _, ticker := range tickers {
		jobs <- ticker
	}
	close(jobs)
	wg.Wait()
	return results
}
