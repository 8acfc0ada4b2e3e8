// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"forecaster/config"
	"forecaster/internal/api/models"
	"forecaster/internal/backtest"
	"forecaster/internal/ports"
	"forecaster/internal/scan"
	"forecaster/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// Handler carries the shared dependencies of all endpoints.
type Handler struct {
	Cfg     *config.Config
	Agg     *backtest.Aggregator
	Scanner *scan.Orchestrator
	Quotes  ports.QuoteSource
	Sched   *scheduler.Scheduler // nil when the scheduler is disabled
	Logger  ports.Logger
	Now     func() time.Time
}

// New creates a Handler. now defaults to time.Now when nil.
func New(cfg *config.Config, agg *backtest.Aggregator, scanner *scan.Orchestrator, quotes ports.QuoteSource, sched *scheduler.Scheduler, logger ports.Logger) *Handler {
	return &Handler{
		Cfg:     cfg,
		Agg:     agg,
		Scanner: scanner,
		Quotes:  quotes,
		Sched:   sched,
		Logger:  logger,
		Now:     time.Now,
	}
}

// bindOptionalJSON binds a request body whose fields are all optional. An
// empty body leaves the target at its zero value instead of failing with EOF.
func bindOptionalJSON(c *gin.Context, target interface{}) error {
	if err := c.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// statusFor maps domain sentinel errors to HTTP status plus a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest), errors.Is(err, ports.ErrConfigurationError):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, ports.ErrNoTrades):
		return http.StatusNotFound, "NO_TRADES"
	case errors.Is(err, ports.ErrNoCandidates):
		return http.StatusNotFound, "NO_CANDIDATES"
	case errors.Is(err, ports.ErrNoData):
		return http.StatusNotFound, "NO_DATA"
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, ports.ErrSourceUnavailable):
		return http.StatusBadGateway, "SOURCE_UNAVAILABLE"
	case errors.Is(err, ports.ErrContextCanceled):
		return http.StatusRequestTimeout, "CANCELED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: err.Error()},
	})
}
