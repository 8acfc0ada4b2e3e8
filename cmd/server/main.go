package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forecaster/config"
	"forecaster/internal/adapters/barcache"
	"forecaster/internal/adapters/logger"
	"forecaster/internal/adapters/yahoofinance"
	"forecaster/internal/api"
	"forecaster/internal/api/handlers"
	"forecaster/internal/backtest"
	"forecaster/internal/scan"
	"forecaster/internal/scheduler"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	yahoo, err := yahoofinance.New(yahoofinance.Config{
		BaseURL:  cfg.DataSource.BaseURL,
		ProxyURL: cfg.DataSource.Proxy,
		Timeout:  time.Duration(cfg.DataSource.TimeoutSeconds) * time.Second,
		Location: cfg.Location(),
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "failed to build data source client")
		os.Exit(1)
	}

	cache, err := barcache.New(barcache.Config{
		DBPath: cfg.Cache.DBPath,
		TTL:    time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Source: yahoo,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "failed to open bar cache")
		os.Exit(1)
	}
	defer cache.Close()
	if err := cache.Prune(ctx); err != nil {
		appLogger.Warn(ctx, "failed to prune expired cache entries", map[string]interface{}{
			"error": err.Error(),
		})
	}

	agg := backtest.New(cache, appLogger)
	scanner := scan.New(agg, appLogger)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(ctx, scanner, cfg.Symbols(), cfg.ScanConfig, appLogger)
		if err := sched.Register(cfg.Scheduler.ScanCron); err != nil {
			appLogger.Error(ctx, err, "failed to register scan schedule", map[string]interface{}{
				"spec": cfg.Scheduler.ScanCron,
			})
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		go sched.RunNow()
	}

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(cfg, agg, scanner, yahoo, sched, appLogger)
	router := api.NewRouter(h, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info(ctx, "server listening", map[string]interface{}{"addr": cfg.Server.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error(ctx, err, "server stopped unexpectedly")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		appLogger.Info(ctx, "shutting down", map[string]interface{}{"signal": sig.String()})
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(ctx, err, "graceful shutdown failed")
	}
}
