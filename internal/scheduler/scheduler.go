// Package scheduler periodically refreshes the scan watch-list so API
// clients can read a recent ranking without paying for a full scan per
// request.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"forecaster/internal/ports"
	"forecaster/internal/scan"

	"github.com/robfig/cron/v3"
)

// Snapshot is the most recent scan outcome. Empty Candidates with a zero
// GeneratedAt means no scan has completed yet.
type Snapshot struct {
	Candidates  []scan.Candidate `json:"candidates"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ScanConfigFunc builds the scan configuration for a run starting now. The
// indirection keeps the lookback window anchored to the run time.
type ScanConfigFunc func(now time.Time) scan.Config

// Scheduler runs the scan on a cron spec and caches the latest snapshot.
type Scheduler struct {
	cron    *cron.Cron
	orch    *scan.Orchestrator
	tickers []string
	scanCfg ScanConfigFunc
	logger  ports.Logger
	ctx     context.Context

	mu     sync.RWMutex
	latest Snapshot
}

// New creates a Scheduler. The cron spec uses six fields (with seconds).
func New(ctx context.Context, orch *scan.Orchestrator, tickers []string, scanCfg ScanConfigFunc, logger ports.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		orch:    orch,
		tickers: tickers,
		scanCfg: scanCfg,
		logger:  logger,
		ctx:     ctx,
	}
}

// Register installs the refresh job. Call before Start.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return err
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "scan scheduler started", nil)
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info(s.ctx, "scan scheduler stopped", nil)
}

// RunNow executes one refresh immediately, outside the cron cadence.
func (s *Scheduler) RunNow() {
	s.refresh()
}

// Latest returns the most recent snapshot and whether one exists.
func (s *Scheduler) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, !s.latest.GeneratedAt.IsZero()
}

func (s *Scheduler) refresh() {
	now := time.Now()
	candidates, err := s.orch.Run(s.ctx, s.tickers, s.scanCfg(now))
	if err != nil {
		// An empty market day is expected; anything else is worth a look.
		if errors.Is(err, ports.ErrNoCandidates) {
			s.logger.Info(s.ctx, "scan refresh found no candidates", nil)
		} else {
			s.logger.Error(s.ctx, err, "scan refresh failed", nil)
		}
		return
	}

	s.mu.Lock()
	s.latest = Snapshot{Candidates: candidates, GeneratedAt: now}
	s.mu.Unlock()

	s.logger.Info(s.ctx, "scan refresh complete", map[string]interface{}{
		"candidates": len(candidates),
	})
}
