package simulator

import (
	"math"

	"forecaster/internal/domain"
)

// Classify labels an entry setup from the entry bar's close, the session
// VWAP, the short trend average, the momentum oscillator, and the opening
// gap. Rules are evaluated in strict priority order; the first match wins.
// An undefined VWAP is replaced by the close itself, which disables the
// reversal rule's price clause (a value is never above itself). Undefined
// gap or indicator values fail every comparison, falling through to
// "other".
func Classify(close, vwap, trendAvg, momentum, gap float64) domain.PatternLabel {
	ref := vwap
	if math.IsNaN(ref) {
		ref = close
	}

	switch {
	case gap <= -0.004 && close > ref:
		return domain.PatternReversal
	case gap >= -0.003 && gap < 0.003 && close > trendAvg:
		return domain.PatternContinuation
	case gap >= 0.005 && momentum >= 65:
		return domain.PatternBreakout
	case gap >= 0.003 && close > trendAvg:
		return domain.PatternPullbackUp
	default:
		return domain.PatternOther
	}
}
