package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecaster/internal/domain"
	"forecaster/internal/indicators"
	"forecaster/internal/ports"
	"forecaster/internal/session"
	"forecaster/internal/simulator"
)

var tokyo = time.FixedZone("JST", 9*3600)

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...map[string]interface{})        {}
func (noopLogger) Info(context.Context, string, ...map[string]interface{})         {}
func (noopLogger) Warn(context.Context, string, ...map[string]interface{})         {}
func (noopLogger) Error(context.Context, error, string, ...map[string]interface{}) {}

type stubSource struct {
	intraday map[string][]domain.Bar
	daily    map[string][]domain.DailyBar
	errs     map[string]error
}

func (s *stubSource) GetIntradayBars(_ context.Context, ticker string, _, _ time.Time, _ string) ([]domain.Bar, error) {
	if err, ok := s.errs[ticker]; ok {
		return nil, err
	}
	return s.intraday[ticker], nil
}

func (s *stubSource) GetDailyBars(_ context.Context, ticker string, _, _ time.Time) ([]domain.DailyBar, error) {
	return s.daily[ticker], nil
}

func bt(t *testing.T, hm string, open, high, low, close float64) domain.Bar {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", "2026-08-24 "+hm, tokyo)
	require.NoError(t, err)
	return domain.Bar{Time: ts, Open: open, High: high, Low: low, Close: close, Volume: 1000}
}

func testConfig() Config {
	return Config{
		Entry: simulator.EntryConfig{
			WindowStart: domain.TimeOfDay{Hour: 9, Minute: 0},
			WindowEnd:   domain.TimeOfDay{Hour: 9, Minute: 20},
			RequireVWAP: true,
		},
		Exit: simulator.ExitConfig{
			StopLossFraction:    -0.007,
			TrailingActivation:  0.005,
			TrailingRetracement: 0.002,
			ForcedExit:          domain.TimeOfDay{Hour: 14, Minute: 55},
			Slippage:            0.0003,
		},
		Indicators: indicators.DefaultConfig(),
		Window:     session.DefaultWindow(),
		Interval:   "5m",
		Start:      time.Date(2026, 8, 20, 0, 0, 0, 0, tokyo),
		End:        time.Date(2026, 8, 25, 0, 0, 0, 0, tokyo),
	}
}

// winningBars trades one session: entry on the open bar (close above the
// typical-price VWAP), trailing exit on the second bar.
func winningBars(t *testing.T) []domain.Bar {
	return []domain.Bar{
		bt(t, "09:00", 998, 1000, 997, 1000),
		bt(t, "09:05", 1005, 1012, 1008, 1010),
		bt(t, "14:55", 1010, 1011, 1009, 1010),
	}
}

// flatBars never satisfy close > vwap: the typical price sits above the
// close on every bar.
func flatBars(t *testing.T) []domain.Bar {
	return []domain.Bar{
		bt(t, "09:00", 1000, 1006, 1000, 1000),
		bt(t, "09:05", 999, 1005, 999, 999),
		bt(t, "09:10", 998, 1004, 998, 998),
	}
}

func TestAggregator_Run(t *testing.T) {
	src := &stubSource{
		intraday: map[string][]domain.Bar{"7011.T": winningBars(t)},
		errs:     map[string]error{"8306.T": ports.ErrSourceUnavailable},
	}
	agg := New(src, noopLogger{})

	res, err := agg.Run(context.Background(), []string{"7011.T", "8306.T"}, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.TradeCount)
	assert.Equal(t, []string{"8306.T"}, res.SkippedTickers)
	require.Contains(t, res.ByTicker, "7011.T")
	assert.Equal(t, domain.ExitReasonTrailingStop, res.Trades[0].Reason)
	assert.Greater(t, res.Summary.Expectancy, 0.0)
}

func TestAggregator_RunIsDeterministic(t *testing.T) {
	src := &stubSource{intraday: map[string][]domain.Bar{"7011.T": winningBars(t)}}
	agg := New(src, noopLogger{})

	first, err := agg.Run(context.Background(), []string{"7011.T"}, testConfig())
	require.NoError(t, err)
	second, err := agg.Run(context.Background(), []string{"7011.T"}, testConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregator_NoTrades(t *testing.T) {
	src := &stubSource{intraday: map[string][]domain.Bar{"7011.T": flatBars(t)}}
	agg := New(src, noopLogger{})

	_, err := agg.Run(context.Background(), []string{"7011.T"}, testConfig())
	assert.ErrorIs(t, err, ports.ErrNoTrades)
}

func TestAggregator_AllTickersFailing(t *testing.T) {
	src := &stubSource{errs: map[string]error{"7011.T": ports.ErrNoData}}
	agg := New(src, noopLogger{})

	_, err := agg.Run(context.Background(), []string{"7011.T"}, testConfig())
	assert.ErrorIs(t, err, ports.ErrNoTrades)
}

func TestAggregator_InvalidConfigFailsFast(t *testing.T) {
	src := &stubSource{}
	agg := New(src, noopLogger{})
	cfg := testConfig()
	cfg.Exit.StopLossFraction = 0.007 // must be negative

	_, err := agg.Run(context.Background(), []string{"7011.T"}, cfg)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrNoTrades))
}

func TestAggregator_ContextCancellation(t *testing.T) {
	src := &stubSource{intraday: map[string][]domain.Bar{"7011.T": winningBars(t)}}
	agg := New(src, noopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := agg.Run(ctx, []string{"7011.T"}, testConfig())
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}
