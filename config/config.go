package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"forecaster/internal/backtest"
	"forecaster/internal/domain"
	"forecaster/internal/indicators"
	"forecaster/internal/scan"
	"forecaster/internal/session"
	"forecaster/internal/simulator"
)

// Ticker pairs an exchange symbol with its display name.
type Ticker struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Index pairs a market index symbol with its display name.
type Index struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Config holds all application configuration. Values come from an optional
// YAML file, then a .env file, then environment variable overrides.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		LogLevel       string   `yaml:"log_level"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	DataSource struct {
		BaseURL        string `yaml:"base_url"`
		Proxy          string `yaml:"proxy"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Timezone       string `yaml:"timezone"`
	} `yaml:"data_source"`

	Cache struct {
		DBPath   string `yaml:"db_path"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"cache"`

	Universe []Ticker `yaml:"universe"`
	Indices  []Index  `yaml:"indices"`

	Backtest struct {
		Interval       string  `yaml:"interval"`
		LookbackDays   int     `yaml:"lookback_days"`
		SessionOpen    string  `yaml:"session_open"`
		SessionClose   string  `yaml:"session_close"`
		EntryStart     string  `yaml:"entry_start"`
		EntryEnd       string  `yaml:"entry_end"`
		StopLoss       float64 `yaml:"stop_loss"`
		TrailStart     float64 `yaml:"trail_start"`
		TrailStop      float64 `yaml:"trail_stop"`
		ForcedExit     string  `yaml:"forced_exit"`
		Slippage       float64 `yaml:"slippage"`
		UseGapBounds   bool    `yaml:"use_gap_bounds"`
		GapMin         float64 `yaml:"gap_min"`
		GapMax         float64 `yaml:"gap_max"`
		RequireVWAP    *bool   `yaml:"require_vwap"`
		RequireTrend   bool    `yaml:"require_trend"`
		RequireRSI     bool    `yaml:"require_rsi"`
		RequireMACD    bool    `yaml:"require_macd"`
	} `yaml:"backtest"`

	Scan struct {
		RelaxedEntryEnd  string  `yaml:"relaxed_entry_end"`
		StrictThreshold  float64 `yaml:"strict_threshold"`
		RelaxedThreshold float64 `yaml:"relaxed_threshold"`
		MinResults       int     `yaml:"min_results"`
		TopN             int     `yaml:"top_n"`
		Workers          int     `yaml:"workers"`
	} `yaml:"scan"`

	Scheduler struct {
		Enabled  bool   `yaml:"enabled"`
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"scheduler"`
}

// DefaultUniverse is the monitored ticker set shipped with the app.
func DefaultUniverse() []Ticker {
	return []Ticker{
		{Symbol: "1605.T", Name: "INPEX"},
		{Symbol: "1802.T", Name: "Obayashi"},
		{Symbol: "1812.T", Name: "Kajima"},
		{Symbol: "3436.T", Name: "SUMCO"},
		{Symbol: "4507.T", Name: "Shionogi"},
		{Symbol: "4568.T", Name: "Daiichi Sankyo"},
		{Symbol: "5020.T", Name: "ENEOS"},
		{Symbol: "6501.T", Name: "Hitachi"},
		{Symbol: "6758.T", Name: "Sony Group"},
		{Symbol: "6920.T", Name: "Lasertec"},
		{Symbol: "7011.T", Name: "Mitsubishi Heavy"},
		{Symbol: "7013.T", Name: "IHI"},
		{Symbol: "7203.T", Name: "Toyota"},
		{Symbol: "8031.T", Name: "Mitsui & Co"},
		{Symbol: "8306.T", Name: "MUFG"},
		{Symbol: "9984.T", Name: "SoftBank Group"},
		{Symbol: "1570.T", Name: "Nikkei Leveraged ETF"},
	}
}

// DefaultIndices is the market snapshot panel.
func DefaultIndices() []Index {
	return []Index{
		{Symbol: "^N225", Name: "Nikkei 225"},
		{Symbol: "NIY=F", Name: "Nikkei Futures"},
		{Symbol: "JPY=X", Name: "USD/JPY"},
		{Symbol: "^VIX", Name: "VIX"},
		{Symbol: "^DJI", Name: "Dow Jones"},
		{Symbol: "CL=F", Name: "WTI Crude"},
		{Symbol: "GC=F", Name: "Gold"},
		{Symbol: "^SOX", Name: "SOX"},
	}
}

// Load reads configuration from a YAML file (if present), a .env file (if
// present), then environment variables, applies defaults, and validates the
// result. Validation errors are collected so a bad config reports every
// problem at once.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if errs := cfg.validate(); len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.DataSource.Proxy = v
	}
	if v := os.Getenv("CACHE_DB_PATH"); v != "" {
		c.Cache.DBPath = v
	}
	if v := os.Getenv("CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLHours = n
		}
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		c.Universe = nil
		for _, sym := range strings.Split(v, ",") {
			sym = strings.TrimSpace(sym)
			if sym != "" {
				c.Universe = append(c.Universe, Ticker{Symbol: sym, Name: sym})
			}
		}
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backtest.LookbackDays = n
		}
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		c.Scheduler.ScanCron = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "INFO"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.DataSource.TimeoutSeconds <= 0 {
		c.DataSource.TimeoutSeconds = 15
	}
	if c.DataSource.Timezone == "" {
		c.DataSource.Timezone = "Asia/Tokyo"
	}
	if c.Cache.DBPath == "" {
		c.Cache.DBPath = "./data/bar_cache.db"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 4
	}
	if len(c.Universe) == 0 {
		c.Universe = DefaultUniverse()
	}
	if len(c.Indices) == 0 {
		c.Indices = DefaultIndices()
	}

	bt := &c.Backtest
	if bt.Interval == "" {
		bt.Interval = "5m"
	}
	if bt.LookbackDays <= 0 {
		bt.LookbackDays = 20
	}
	if bt.SessionOpen == "" {
		bt.SessionOpen = "09:00"
	}
	if bt.SessionClose == "" {
		bt.SessionClose = "15:00"
	}
	if bt.EntryStart == "" {
		bt.EntryStart = "09:00"
	}
	if bt.EntryEnd == "" {
		bt.EntryEnd = "09:20"
	}
	if bt.StopLoss == 0 {
		bt.StopLoss = -0.007
	}
	if bt.TrailStart == 0 {
		bt.TrailStart = 0.005
	}
	if bt.TrailStop == 0 {
		bt.TrailStop = 0.002
	}
	if bt.ForcedExit == "" {
		bt.ForcedExit = "14:55"
	}
	if bt.Slippage == 0 {
		bt.Slippage = 0.0003
	}
	// Absent require_vwap defaults to the dashboard's VWAP-only entry when no
	// other predicate is enabled. An explicit false stays false, so an entry
	// with no predicates at all remains expressible.
	if bt.RequireVWAP == nil {
		vwap := !bt.RequireTrend && !bt.RequireRSI && !bt.RequireMACD
		bt.RequireVWAP = &vwap
	}

	sc := &c.Scan
	if sc.RelaxedEntryEnd == "" {
		sc.RelaxedEntryEnd = "10:30"
	}
	if sc.RelaxedThreshold == 0 {
		sc.RelaxedThreshold = -0.001
	}
	if sc.MinResults <= 0 {
		sc.MinResults = 5
	}
	if sc.TopN <= 0 {
		sc.TopN = 5
	}
	if sc.Workers <= 0 {
		sc.Workers = 4
	}

	if c.Scheduler.ScanCron == "" {
		c.Scheduler.ScanCron = "0 30 15 * * 1-5" // weekdays after the close, JST
	}
}

func (c *Config) validate() []string {
	var errs []string

	if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid data_source.timezone %q: %v", c.DataSource.Timezone, err))
	}
	for _, field := range []struct{ name, value string }{
		{"backtest.session_open", c.Backtest.SessionOpen},
		{"backtest.session_close", c.Backtest.SessionClose},
		{"backtest.entry_start", c.Backtest.EntryStart},
		{"backtest.entry_end", c.Backtest.EntryEnd},
		{"backtest.forced_exit", c.Backtest.ForcedExit},
		{"scan.relaxed_entry_end", c.Scan.RelaxedEntryEnd},
	} {
		if _, err := domain.ParseTimeOfDay(field.value); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s %q: %v", field.name, field.value, err))
		}
	}
	if c.Backtest.StopLoss >= 0 {
		errs = append(errs, "backtest.stop_loss must be negative")
	}
	if c.Backtest.TrailStart <= 0 || c.Backtest.TrailStop <= 0 {
		errs = append(errs, "backtest.trail_start and backtest.trail_stop must be positive")
	}
	if c.Backtest.Slippage < 0 {
		errs = append(errs, "backtest.slippage cannot be negative")
	}
	if c.Backtest.UseGapBounds && c.Backtest.GapMin > c.Backtest.GapMax {
		errs = append(errs, "backtest.gap_min must not exceed backtest.gap_max")
	}
	if len(c.Universe) == 0 {
		errs = append(errs, "universe must list at least one ticker")
	}
	if c.Scan.RelaxedThreshold > c.Scan.StrictThreshold {
		errs = append(errs, "scan.relaxed_threshold must not exceed scan.strict_threshold")
	}
	return errs
}

// Location returns the exchange timezone. Call after Load has validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Symbols returns the universe as a plain symbol list.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Universe))
	for _, t := range c.Universe {
		out = append(out, t.Symbol)
	}
	return out
}

// BacktestConfig builds the engine configuration for the configured universe
// over the lookback window ending at now.
func (c *Config) BacktestConfig(now time.Time) backtest.Config {
	sessOpen, _ := domain.ParseTimeOfDay(c.Backtest.SessionOpen)
	sessClose, _ := domain.ParseTimeOfDay(c.Backtest.SessionClose)
	entryStart, _ := domain.ParseTimeOfDay(c.Backtest.EntryStart)
	entryEnd, _ := domain.ParseTimeOfDay(c.Backtest.EntryEnd)
	forced, _ := domain.ParseTimeOfDay(c.Backtest.ForcedExit)

	return backtest.Config{
		Entry: simulator.EntryConfig{
			WindowStart:      entryStart,
			WindowEnd:        entryEnd,
			RequireVWAP:      c.Backtest.RequireVWAP != nil && *c.Backtest.RequireVWAP,
			RequireTrendAvg:  c.Backtest.RequireTrend,
			RequireMomentum:  c.Backtest.RequireRSI,
			RequireTrendDiff: c.Backtest.RequireMACD,
			UseGapBounds:     c.Backtest.UseGapBounds,
			GapMin:           c.Backtest.GapMin,
			GapMax:           c.Backtest.GapMax,
		},
		Exit: simulator.ExitConfig{
			StopLossFraction:    c.Backtest.StopLoss,
			TrailingActivation:  c.Backtest.TrailStart,
			TrailingRetracement: c.Backtest.TrailStop,
			ForcedExit:          forced,
			Slippage:            c.Backtest.Slippage,
		},
		Indicators: indicators.DefaultConfig(),
		Window:     session.Window{Open: sessOpen, Close: sessClose},
		Interval:   c.Backtest.Interval,
		Start:      now.AddDate(0, 0, -c.Backtest.LookbackDays),
		End:        now,
	}
}

// ScanConfig builds the two-pass scan configuration. The relaxed pass widens
// the entry window, drops the entry predicates to VWAP-only, and lowers the
// qualification threshold. Gap bounds and exit rules carry over unchanged.
func (c *Config) ScanConfig(now time.Time) scan.Config {
	strict := c.BacktestConfig(now)
	relaxed := strict
	relaxedEnd, _ := domain.ParseTimeOfDay(c.Scan.RelaxedEntryEnd)
	relaxed.Entry.WindowEnd = relaxedEnd
	relaxed.Entry.RequireVWAP = true
	relaxed.Entry.RequireTrendAvg = false
	relaxed.Entry.RequireMomentum = false
	relaxed.Entry.RequireTrendDiff = false

	return scan.Config{
		Strict:           strict,
		Relaxed:          relaxed,
		MinResults:       c.Scan.MinResults,
		TopN:             c.Scan.TopN,
		StrictThreshold:  c.Scan.StrictThreshold,
		RelaxedThreshold: c.Scan.RelaxedThreshold,
		Workers:          c.Scan.Workers,
	}
}
