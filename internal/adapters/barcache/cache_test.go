package barcache

import (
	"context"
	"testing"
	"time"

	"forecaster/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	intradayCalls int
	dailyCalls    int
	bars          []domain.Bar
	daily         []domain.DailyBar
	err           error
}

func (s *countingSource) GetIntradayBars(_ context.Context, _ string, _, _ time.Time, _ string) ([]domain.Bar, error) {
	s.intradayCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bars, nil
}

func (s *countingSource) GetDailyBars(_ context.Context, _ string, _, _ time.Time) ([]domain.DailyBar, error) {
	s.dailyCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.daily, nil
}

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...map[string]interface{}) {}
func (noopLogger) Info(context.Context, string, ...map[string]interface{})  {}
func (noopLogger) Warn(context.Context, string, ...map[string]interface{})  {}
func (noopLogger) Error(context.Context, error, string, ...map[string]interface{}) {}

func newTestCache(t *testing.T, src *countingSource, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(Config{DBPath: ":memory:", TTL: ttl, Source: src, Logger: noopLogger{}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_IntradayReadThrough(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	src := &countingSource{bars: []domain.Bar{
		{Time: time.Date(2026, 8, 28, 9, 0, 0, 0, jst), Open: 1000, High: 1005, Low: 998, Close: 1002, Volume: 12000},
		{Time: time.Date(2026, 8, 28, 9, 5, 0, 0, jst), Open: 1002, High: 1008, Low: 1001, Close: 1007, Volume: 9000},
	}}
	cache := newTestCache(t, src, time.Hour)

	start := time.Date(2026, 8, 28, 0, 0, 0, 0, jst)
	end := time.Date(2026, 8, 29, 0, 0, 0, 0, jst)

	first, err := cache.GetIntradayBars(context.Background(), "7203.T", start, end, "5m")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, src.intradayCalls)

	second, err := cache.GetIntradayBars(context.Background(), "7203.T", start, end, "5m")
	require.NoError(t, err)
	assert.Equal(t, 1, src.intradayCalls, "second read should be served from cache")
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Close, second[0].Close)
	assert.True(t, first[1].Time.Equal(second[1].Time))
}

func TestCache_KeySeparatesTickersAndIntervals(t *testing.T) {
	src := &countingSource{bars: []domain.Bar{{Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}}}
	cache := newTestCache(t, src, time.Hour)

	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	_, err := cache.GetIntradayBars(context.Background(), "7203.T", start, end, "5m")
	require.NoError(t, err)
	_, err = cache.GetIntradayBars(context.Background(), "6758.T", start, end, "5m")
	require.NoError(t, err)
	_, err = cache.GetIntradayBars(context.Background(), "7203.T", start, end, "1m")
	require.NoError(t, err)
	assert.Equal(t, 3, src.intradayCalls)
}

func TestCache_ExpiredEntryRefetched(t *testing.T) {
	src := &countingSource{daily: []domain.DailyBar{{Date: "2026-08-28", Open: 1000, Close: 1010}}}
	cache := newTestCache(t, src, time.Minute)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	_, err := cache.GetDailyBars(context.Background(), "7203.T", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, src.dailyCalls)

	// Advance the clock past the TTL.
	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = cache.GetDailyBars(context.Background(), "7203.T", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, src.dailyCalls)
}

func TestCache_UpstreamErrorNotCached(t *testing.T) {
	src := &countingSource{err: assert.AnError}
	cache := newTestCache(t, src, time.Hour)

	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	_, err := cache.GetIntradayBars(context.Background(), "7203.T", start, end, "5m")
	require.Error(t, err)

	src.err = nil
	src.bars = []domain.Bar{{Close: 100}}
	bars, err := cache.GetIntradayBars(context.Background(), "7203.T", start, end, "5m")
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 2, src.intradayCalls)
}

func TestCache_Prune(t *testing.T) {
	src := &countingSource{bars: []domain.Bar{{Close: 100}}}
	cache := newTestCache(t, src, -time.Minute) // already expired on write

	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	_, err := cache.GetIntradayBars(context.Background(), "7203.T", start, end, "5m")
	require.NoError(t, err)
	require.NoError(t, cache.Prune(context.Background()))

	var n int
	require.NoError(t, cache.db.QueryRow(`SELECT COUNT(*) FROM bar_cache`).Scan(&n))
	assert.Equal(t, 0, n)
}
