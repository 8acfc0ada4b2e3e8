package handlers

import (
	"fmt"
	"net/http"

	"forecaster/internal/api/models"
	"forecaster/internal/ports"

	"github.com/gin-gonic/gin"
)

// RunScan handles POST /api/v1/scan: a fresh two-pass scan over the
// requested universe.
func (h *Handler) RunScan(c *gin.Context) {
	var req models.ScanRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err))
		return
	}

	now := h.Now()
	cfg := h.Cfg.ScanConfig(now)
	if req.LookbackDays > 0 {
		cfg.Strict.Start = now.AddDate(0, 0, -req.LookbackDays)
		cfg.Relaxed.Start = cfg.Strict.Start
	}
	if req.TopN > 0 {
		cfg.TopN = req.TopN
	}
	if req.MinResults > 0 {
		cfg.MinResults = req.MinResults
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = h.Cfg.Symbols()
	}

	candidates, err := h.Scanner.Run(c.Request.Context(), tickers, cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidates":   candidates,
		"generated_at": now,
	})
}

// LatestScan handles GET /api/v1/scan/latest: the scheduler's cached
// snapshot, without triggering a new scan.
func (h *Handler) LatestScan(c *gin.Context) {
	if h.Sched == nil {
		writeError(c, fmt.Errorf("%w: scan scheduler is disabled", ports.ErrNoCandidates))
		return
	}
	snap, ok := h.Sched.Latest()
	if !ok {
		writeError(c, fmt.Errorf("%w: no scan has completed yet", ports.ErrNoCandidates))
		return
	}
	c.JSON(http.StatusOK, snap)
}
