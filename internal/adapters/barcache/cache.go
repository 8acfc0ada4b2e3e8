// Package barcache wraps a ports.BarSource with a SQLite-backed response
// cache. Entries are keyed by (ticker, interval, date range) and carry an
// explicit expiry, so repeated backtests over the same range do not hammer
// the upstream data vendor.
package barcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forecaster/internal/domain"
	"forecaster/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Config holds configuration for the cache.
type Config struct {
	DBPath string        // SQLite file path; ":memory:" works for tests
	TTL    time.Duration // Entry lifetime; entries past it are refetched
	Source ports.BarSource
	Logger ports.Logger
}

// Cache is a caching ports.BarSource.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	source ports.BarSource
	logger ports.Logger
	now    func() time.Time
}

// New opens (or creates) the cache database and verifies the schema.
func New(cfg Config) (*Cache, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for bar cache")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("upstream source is required for bar cache")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/bar_cache.db"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open cache at %s: %v", ports.ErrDBConnection, dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping cache at %s: %v", ports.ErrDBConnection, dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Cache{db: db, ttl: cfg.TTL, source: cfg.Source, logger: cfg.Logger, now: time.Now}
	if err := c.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	cfg.Logger.Info(context.Background(), "bar cache ready", map[string]interface{}{
		"path": dbPath,
		"ttl":  cfg.TTL.String(),
	})
	return c, nil
}

func (c *Cache) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS bar_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		expires_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bar_cache_expires ON bar_cache (expires_at);
	`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(kind, ticker, interval string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		kind, ticker, interval, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// GetIntradayBars implements ports.BarSource with read-through caching.
func (c *Cache) GetIntradayBars(ctx context.Context, ticker string, start, end time.Time, interval string) ([]domain.Bar, error) {
	key := cacheKey("intraday", ticker, interval, start, end)

	var cached []domain.Bar
	if err := c.lookup(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, ports.ErrCacheMiss) {
		c.logger.Warn(ctx, "bar cache lookup failed, falling through", map[string]interface{}{
			"key":    key,
			"reason": err.Error(),
		})
	}

	bars, err := c.source.GetIntradayBars(ctx, ticker, start, end, interval)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, bars)
	return bars, nil
}

// GetDailyBars implements ports.BarSource with read-through caching.
func (c *Cache) GetDailyBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyBar, error) {
	key := cacheKey("daily", ticker, "1d", start, end)

	var cached []domain.DailyBar
	if err := c.lookup(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, ports.ErrCacheMiss) {
		c.logger.Warn(ctx, "bar cache lookup failed, falling through", map[string]interface{}{
			"key":    key,
			"reason": err.Error(),
		})
	}

	daily, err := c.source.GetDailyBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, daily)
	return daily, nil
}

func (c *Cache) lookup(ctx context.Context, key string, dest interface{}) error {
	var payload []byte
	var expiresAt time.Time
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM bar_cache WHERE cache_key = ?`, key,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	if c.now().After(expiresAt) {
		return ports.ErrCacheMiss
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("%w: decode cache payload: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// store is best-effort: a failed write degrades to no caching, never to a
// failed fetch.
func (c *Cache) store(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn(ctx, "bar cache encode failed", map[string]interface{}{"key": key, "reason": err.Error()})
		return
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO bar_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)`,
		key, payload, c.now().Add(c.ttl),
	)
	if err != nil {
		c.logger.Warn(ctx, "bar cache write failed", map[string]interface{}{"key": key, "reason": err.Error()})
	}
}

// Prune removes expired entries.
func (c *Cache) Prune(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM bar_cache WHERE expires_at < ?`, c.now()); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}
