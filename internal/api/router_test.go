package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecaster/config"
	"forecaster/internal/api/handlers"
	"forecaster/internal/backtest"
	"forecaster/internal/domain"
	"forecaster/internal/ports"
	"forecaster/internal/scan"
)

var tokyo = time.FixedZone("JST", 9*3600)

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...map[string]interface{})        {}
func (noopLogger) Info(context.Context, string, ...map[string]interface{})         {}
func (noopLogger) Warn(context.Context, string, ...map[string]interface{})         {}
func (noopLogger) Error(context.Context, error, string, ...map[string]interface{}) {}

type stubSource struct {
	intraday map[string][]domain.Bar
}

func (s *stubSource) GetIntradayBars(_ context.Context, ticker string, _, _ time.Time, _ string) ([]domain.Bar, error) {
	bars, ok := s.intraday[ticker]
	if !ok {
		return nil, ports.ErrNoData
	}
	return bars, nil
}

func (s *stubSource) GetDailyBars(context.Context, string, time.Time, time.Time) ([]domain.DailyBar, error) {
	return nil, nil
}

type stubQuotes struct {
	quotes map[string]*ports.Quote
}

func (s *stubQuotes) GetQuote(_ context.Context, symbol string) (*ports.Quote, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, ports.ErrNoData
	}
	return q, nil
}

func bar(t *testing.T, hm string, open, high, low, close float64) domain.Bar {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", "2026-08-24 "+hm, tokyo)
	require.NoError(t, err)
	return domain.Bar{Time: ts, Open: open, High: high, Low: low, Close: close, Volume: 1000}
}

func winner(t *testing.T) []domain.Bar {
	return []domain.Bar{
		bar(t, "09:00", 998, 1000, 997, 1000),
		bar(t, "09:05", 1005, 1012, 1004, 1010),
		bar(t, "14:55", 1010, 1011, 1009, 1010),
	}
}

func newTestRouter(t *testing.T, src ports.BarSource, quotes ports.QuoteSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	agg := backtest.New(src, noopLogger{})
	h := handlers.New(cfg, agg, scan.New(agg, noopLogger{}), quotes, nil, noopLogger{})
	h.Now = func() time.Time {
		return time.Date(2026, 8, 28, 16, 0, 0, 0, tokyo)
	}
	return NewRouter(h, []string{"*"})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, &stubQuotes{})

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunBacktest_OK(t *testing.T) {
	src := &stubSource{intraday: map[string][]domain.Bar{"7203.T": winner(t)}}
	router := newTestRouter(t, src, &stubQuotes{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/backtest", map[string]interface{}{
		"tickers": []string{"7203.T"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result backtest.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Summary.TradeCount)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "7203.T", result.Trades[0].Ticker)
}

func TestRunBacktest_InvalidTimeOverride(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, &stubQuotes{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/backtest", map[string]interface{}{
		"tickers":     []string{"7203.T"},
		"entry_start": "9 o'clock",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestRunBacktest_NoTrades(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, &stubQuotes{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/backtest", map[string]interface{}{
		"tickers": []string{"9999.T"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_TRADES")
}

func TestRunScan_OK(t *testing.T) {
	src := &stubSource{intraday: map[string][]domain.Bar{"7203.T": winner(t)}}
	router := newTestRouter(t, src, &stubQuotes{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", map[string]interface{}{
		"tickers": []string{"7203.T"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Candidates []scan.Candidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "7203.T", resp.Candidates[0].Ticker)
	assert.False(t, resp.Candidates[0].Relaxed)
}

func TestRunScan_EmptyBodyUsesDefaults(t *testing.T) {
	src := &stubSource{intraday: map[string][]domain.Bar{"7203.T": winner(t)}}
	router := newTestRouter(t, src, &stubQuotes{})

	// Every request field is optional, so no body means the configured
	// universe and defaults.
	w := doJSON(t, router, http.MethodPost, "/api/v1/scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Candidates []scan.Candidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "7203.T", resp.Candidates[0].Ticker)
}

func TestLatestScan_SchedulerDisabled(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, &stubQuotes{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/scan/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_CANDIDATES")
}

func TestMarket_PartialFailuresKeepPanel(t *testing.T) {
	quotes := &stubQuotes{quotes: map[string]*ports.Quote{
		"^N225": {Symbol: "^N225", Last: 42000.5, ChangePercent: 1.2},
	}}
	router := newTestRouter(t, &stubSource{}, quotes)

	w := doJSON(t, router, http.MethodGet, "/api/v1/market", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Quotes []struct {
			Symbol string   `json:"symbol"`
			Value  *float64 `json:"value"`
		} `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 8)

	bySymbol := map[string]*float64{}
	for _, q := range resp.Quotes {
		bySymbol[q.Symbol] = q.Value
	}
	require.NotNil(t, bySymbol["^N225"])
	assert.Equal(t, 42000.5, *bySymbol["^N225"])
	assert.Nil(t, bySymbol["^VIX"])
}
