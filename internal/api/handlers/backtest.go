package handlers

import (
	"fmt"
	"net/http"

	"forecaster/internal/api/models"
	"forecaster/internal/backtest"
	"forecaster/internal/domain"
	"forecaster/internal/ports"

	"github.com/gin-gonic/gin"
)

// RunBacktest handles POST /api/v1/backtest. Request fields override the
// configured defaults; omitted fields keep them.
func (h *Handler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err))
		return
	}

	cfg, err := h.backtestConfig(req)
	if err != nil {
		writeError(c, err)
		return
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = h.Cfg.Symbols()
	}

	result, err := h.Agg.Run(c.Request.Context(), tickers, cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) backtestConfig(req models.BacktestRequest) (backtest.Config, error) {
	now := h.Now()
	cfg := h.Cfg.BacktestConfig(now)
	if req.LookbackDays > 0 {
		cfg.Start = now.AddDate(0, 0, -req.LookbackDays)
	}

	for _, override := range []struct {
		value string
		dest  *domain.TimeOfDay
		name  string
	}{
		{req.EntryStart, &cfg.Entry.WindowStart, "entry_start"},
		{req.EntryEnd, &cfg.Entry.WindowEnd, "entry_end"},
		{req.ForcedExit, &cfg.Exit.ForcedExit, "forced_exit"},
	} {
		if override.value == "" {
			continue
		}
		tod, err := domain.ParseTimeOfDay(override.value)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("%w: %s: %v", ports.ErrInvalidRequest, override.name, err)
		}
		*override.dest = tod
	}

	if req.StopLoss != nil {
		cfg.Exit.StopLossFraction = *req.StopLoss
	}
	if req.TrailStart != nil {
		cfg.Exit.TrailingActivation = *req.TrailStart
	}
	if req.TrailStop != nil {
		cfg.Exit.TrailingRetracement = *req.TrailStop
	}
	if req.Slippage != nil {
		cfg.Exit.Slippage = *req.Slippage
	}
	if req.RequireVWAP != nil {
		cfg.Entry.RequireVWAP = *req.RequireVWAP
	}
	if req.RequireTrend != nil {
		cfg.Entry.RequireTrendAvg = *req.RequireTrend
	}
	if req.RequireRSI != nil {
		cfg.Entry.RequireMomentum = *req.RequireRSI
	}
	if req.RequireMACD != nil {
		cfg.Entry.RequireTrendDiff = *req.RequireMACD
	}
	if req.UseGapBounds != nil {
		cfg.Entry.UseGapBounds = *req.UseGapBounds
	}
	if req.GapMin != nil {
		cfg.Entry.GapMin = *req.GapMin
	}
	if req.GapMax != nil {
		cfg.Entry.GapMax = *req.GapMax
	}

	if err := cfg.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return cfg, nil
}
