// Package yahoofinance implements ports.BarSource and ports.QuoteSource
// on top of the Yahoo Finance public chart API.
package yahoofinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"forecaster/internal/domain"
	"forecaster/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds client construction options.
type Config struct {
	BaseURL  string         // Defaults to the public query host
	ProxyURL string         // Optional HTTPS proxy
	Timeout  time.Duration  // Defaults to 30s
	Location *time.Location // Exchange-local zone for bar timestamps
	Logger   ports.Logger
}

// Client talks to the Yahoo Finance v8 chart endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	loc        *time.Location
	logger     ports.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for yahoofinance client")
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("exchange location is required for yahoofinance client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    baseURL,
		loc:        cfg.Location,
		logger:     cfg.Logger,
	}, nil
}

// chartResponse is the response structure from the Yahoo Finance chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (c *Client) fetchChart(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&period1=%d&period2=%d",
		c.baseURL, url.PathEscape(symbol), interval, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ports.ErrSourceUnavailable, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ports.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: symbol %s", ports.ErrNoData, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ports.ErrSourceUnavailable, resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrMalformedData, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrNoData, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%w: empty chart for %s", ports.ErrNoData, symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: missing quote block for %s", ports.ErrMalformedData, symbol)
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n ||
		len(quote.Close) != n || len(quote.Volume) != n {
		return nil, fmt.Errorf("%w: quote/timestamp length mismatch for %s", ports.ErrMalformedData, symbol)
	}

	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		cl := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars (halts, holidays)
		}
		bars = append(bars, domain.Bar{
			Time:   time.Unix(ts, 0).In(c.loc),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: toFloat(quote.Volume[i]),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: only null bars for %s", ports.ErrNoData, symbol)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// GetIntradayBars implements ports.BarSource.
func (c *Client) GetIntradayBars(ctx context.Context, ticker string, start, end time.Time, interval string) ([]domain.Bar, error) {
	return c.fetchChart(ctx, ticker, interval, start, end)
}

// GetDailyBars implements ports.BarSource.
func (c *Client) GetDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyBar, error) {
	// Pad one extra week backwards so the first session still finds a
	// previous close.
	bars, err := c.fetchChart(ctx, ticker, "1d", start.AddDate(0, 0, -7), end)
	if err != nil {
		return nil, err
	}
	daily := make([]domain.DailyBar, 0, len(bars))
	for _, b := range bars {
		daily = append(daily, domain.DailyBar{
			Date:  b.Time.Format("2006-01-02"),
			Open:  b.Open,
			Close: b.Close,
		})
	}
	return daily, nil
}

// GetQuote implements ports.QuoteSource: latest daily close plus percent
// change versus the prior close.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*ports.Quote, error) {
	end := time.Now()
	bars, err := c.fetchChart(ctx, symbol, "1d", end.AddDate(0, 0, -7), end)
	if err != nil {
		return nil, err
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: need two daily bars for %s", ports.ErrNoData, symbol)
	}
	latest := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close
	q := &ports.Quote{Symbol: symbol, Last: latest}
	if prev != 0 {
		q.ChangePercent = (latest - prev) / prev * 100
	}
	return q, nil
}
