// Bar fetcher. Downloads intraday and daily bars for a ticker and writes
// them to CSV files for the offline backtest runner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"forecaster/config"
	"forecaster/internal/adapters/logger"
	"forecaster/internal/adapters/yahoofinance"
	"forecaster/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	ticker := flag.String("ticker", "7203.T", "ticker to fetch")
	days := flag.Int("days", 0, "lookback days (0 uses the configured default)")
	outDir := flag.String("out", "data", "output directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(logger.ParseLevel(cfg.Server.LogLevel))
	ctx := context.Background()

	yahoo, err := yahoofinance.New(yahoofinance.Config{
		BaseURL:  cfg.DataSource.BaseURL,
		ProxyURL: cfg.DataSource.Proxy,
		Timeout:  time.Duration(cfg.DataSource.TimeoutSeconds) * time.Second,
		Location: cfg.Location(),
		Logger:   appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: failed to build data source client: %v", err)
	}

	lookback := cfg.Backtest.LookbackDays
	if *days > 0 {
		lookback = *days
	}
	end := time.Now()
	start := end.AddDate(0, 0, -lookback)

	bars, err := yahoo.GetIntradayBars(ctx, *ticker, start, end, cfg.Backtest.Interval)
	if err != nil {
		appLogger.Error(ctx, err, "failed to fetch intraday bars", map[string]interface{}{"ticker": *ticker})
		os.Exit(1)
	}
	daily, err := yahoo.GetDailyBars(ctx, *ticker, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "failed to fetch daily bars", map[string]interface{}{"ticker": *ticker})
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("FATAL: create output directory: %v", err)
	}
	stamp := fmt.Sprintf("%s_to_%s", start.Format("20060102"), end.Format("20060102"))
	barsFile := fmt.Sprintf("%s/%s_%s_%s.csv", *outDir, *ticker, cfg.Backtest.Interval, stamp)
	dailyFile := fmt.Sprintf("%s/%s_1d_%s.csv", *outDir, *ticker, stamp)

	if err := utils.WriteBarsToCSV(bars, barsFile); err != nil {
		appLogger.Error(ctx, err, "failed to write bars CSV")
		os.Exit(1)
	}
	if err := utils.WriteDailyBarsToCSV(daily, dailyFile); err != nil {
		appLogger.Error(ctx, err, "failed to write daily CSV")
		os.Exit(1)
	}

	appLogger.Info(ctx, "saved bars", map[string]interface{}{
		"ticker":     *ticker,
		"bars":       len(bars),
		"daily":      len(daily),
		"bars_file":  barsFile,
		"daily_file": dailyFile,
	})
}
