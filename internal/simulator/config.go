package simulator

import (
	"fmt"
	"strings"

	"forecaster/internal/domain"
)

// EntryConfig selects when and under which conditions a long entry is taken.
type EntryConfig struct {
	WindowStart domain.TimeOfDay // Earliest entry bar time, inclusive
	WindowEnd   domain.TimeOfDay // Latest entry bar time, inclusive

	// Predicate toggles. Every enabled predicate must hold on the entry bar.
	RequireVWAP      bool // close above session VWAP
	RequireTrendAvg  bool // close above the short trend EMA
	RequireMomentum  bool // RSI above threshold and rising
	RequireTrendDiff bool // MACD histogram rising

	// Opening-gap eligibility bounds, applied only when UseGapBounds is set.
	UseGapBounds bool
	GapMin       float64
	GapMax       float64
}

// ExitConfig controls how an open position is managed and flattened.
type ExitConfig struct {
	StopLossFraction    float64          // Strictly negative, e.g. -0.007
	TrailingActivation  float64          // Strictly positive, e.g. 0.005
	TrailingRetracement float64          // Strictly positive, e.g. 0.002
	ForcedExit          domain.TimeOfDay // Session must flatten at or after this time
	Slippage            float64          // Non-negative, applied against the trader on both fills
}

// Validate rejects configurations that would produce nonsensical
// simulations. Errors are collected so the caller sees every problem at
// once.
func Validate(entry EntryConfig, exit ExitConfig) error {
	var errs []string

	if entry.WindowEnd.Minutes() < entry.WindowStart.Minutes() {
		errs = append(errs, "entry window end must not precede entry window start")
	}
	if entry.UseGapBounds && entry.GapMin > entry.GapMax {
		errs = append(errs, "gap bound min must not exceed max")
	}
	if exit.StopLossFraction >= 0 {
		errs = append(errs, "stop loss fraction must be negative")
	}
	if exit.TrailingActivation <= 0 {
		errs = append(errs, "trailing activation must be positive")
	}
	if exit.TrailingRetracement <= 0 {
		errs = append(errs, "trailing retracement must be positive")
	}
	if exit.Slippage < 0 {
		errs = append(errs, "slippage must not be negative")
	}
	if exit.ForcedExit.Minutes() <= entry.WindowStart.Minutes() {
		errs = append(errs, "forced exit time must fall after the entry window start")
	}

	if len(errs) > 0 {
		return fmt.Errorf("simulation config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
