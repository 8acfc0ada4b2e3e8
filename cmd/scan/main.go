package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"forecaster/config"
	"forecaster/internal/adapters/barcache"
	"forecaster/internal/adapters/logger"
	"forecaster/internal/adapters/yahoofinance"
	"forecaster/internal/backtest"
	"forecaster/internal/ports"
	"forecaster/internal/scan"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
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

	cache, err := barcache.New(barcache.Config{
		DBPath: cfg.Cache.DBPath,
		TTL:    time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Source: yahoo,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: failed to open bar cache: %v", err)
	}
	defer cache.Close()

	scanner := scan.New(backtest.New(cache, appLogger), appLogger)

	candidates, err := scanner.Run(ctx, cfg.Symbols(), cfg.ScanConfig(time.Now()))
	if err != nil {
		if errors.Is(err, ports.ErrNoCandidates) {
			appLogger.Info(ctx, "no candidates qualified", nil)
			return
		}
		appLogger.Error(ctx, err, "scan failed")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(candidates); err != nil {
		appLogger.Error(ctx, err, "failed to write results")
		os.Exit(1)
	}
}
