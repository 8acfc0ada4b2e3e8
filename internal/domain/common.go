package domain

// ExitReason indicates why a position was closed.
type ExitReason string

const (
	ExitReasonTrailingStop ExitReason = "TRAILING_STOP"
	ExitReasonStopLoss     ExitReason = "STOP_LOSS"
	ExitReasonTimeExit     ExitReason = "TIME_EXIT"
)

// PatternLabel is a qualitative classification of the setup at entry.
type PatternLabel string

const (
	PatternReversal     PatternLabel = "reversal"
	PatternContinuation PatternLabel = "continuation"
	PatternBreakout     PatternLabel = "breakout"
	PatternPullbackUp   PatternLabel = "pullback-up"
	PatternOther        PatternLabel = "other"
)
