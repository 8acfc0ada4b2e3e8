// Offline backtest runner. Reads intraday bars (and optionally daily bars
// for gap context) from CSV files written by cmd/fetch, runs the session
// simulation, and prints the aggregate result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"forecaster/config"
	"forecaster/internal/adapters/logger"
	"forecaster/internal/backtest"
	"forecaster/internal/domain"
	"forecaster/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	barsPath := flag.String("bars", "", "intraday bars CSV (required)")
	dailyPath := flag.String("daily", "", "daily bars CSV for gap context (optional)")
	ticker := flag.String("ticker", "OFFLINE", "ticker label for the loaded bars")
	flag.Parse()

	if *barsPath == "" {
		log.Fatal("FATAL: -bars is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(logger.ParseLevel(cfg.Server.LogLevel))
	ctx := context.Background()

	bars, err := utils.ReadBarsFromCSV(*barsPath)
	if err != nil {
		appLogger.Error(ctx, err, "failed to read bars")
		os.Exit(1)
	}
	if len(bars) == 0 {
		appLogger.Info(ctx, "bars file is empty, nothing to simulate", nil)
		return
	}
	appLogger.Info(ctx, "loaded bars", map[string]interface{}{
		"file":  *barsPath,
		"count": len(bars),
	})

	var daily []domain.DailyBar
	if *dailyPath != "" {
		daily, err = utils.ReadDailyBarsFromCSV(*dailyPath)
		if err != nil {
			appLogger.Error(ctx, err, "failed to read daily bars")
			os.Exit(1)
		}
	}

	btCfg := cfg.BacktestConfig(bars[len(bars)-1].Time)
	if err := btCfg.Validate(); err != nil {
		appLogger.Error(ctx, err, "invalid backtest configuration")
		os.Exit(1)
	}

	trades := backtest.SimulateBars(*ticker, bars, daily, btCfg)
	result, err := backtest.BuildResult(trades)
	if err != nil {
		appLogger.Info(ctx, "no trades produced", nil)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		appLogger.Error(ctx, err, "failed to write result")
		os.Exit(1)
	}
}
