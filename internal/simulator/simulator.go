// Package simulator implements the per-session trade state machine: a
// single FLAT -> LONG -> FLAT round trip driven by entry predicates and a
// trailing/stop exit.
package simulator

import (
	"math"
	"time"

	"forecaster/internal/domain"
	"forecaster/internal/indicators"
)

// momentumEntryThreshold is the RSI floor for the momentum entry predicate.
const momentumEntryThreshold = 45.0

type state int

const (
	stateFlat state = iota
	stateLong
)

// position tracks the open leg of the round trip while the machine is LONG.
type position struct {
	entryIdx   int
	entryPrice float64
	entryVWAP  float64
	trailHigh  float64
	armed      bool
	pattern    domain.PatternLabel
}

// Run simulates one session under the given configuration and returns the
// completed trade, or nil when no entry fired. The indicator set must be
// parallel to the session's bars.
//
// A session whose bars run out while still LONG is force-closed at the
// last bar's close with reason TIME_EXIT; if the entry bar was the last
// bar of the session there is nothing to close against and the position is
// discarded.
func Run(s *domain.Session, ind indicators.Set, entry EntryConfig, exit ExitConfig) *domain.Trade {
	st := stateFlat
	var pos position
	gap := s.GapFraction()

	for i, b := range s.Bars {
		switch st {
		case stateFlat:
			if minutes := domain.MinutesOfDay(b.Time); minutes > entry.WindowEnd.Minutes() {
				// Entry window has passed; the session yields no trade.
				return nil
			}
			if !tryEnter(s, ind, entry, exit, i, gap, &pos) {
				continue
			}
			st = stateLong

		case stateLong:
			if trade := manageExit(s, exit, i, gap, &pos); trade != nil {
				return trade
			}
		}
	}

	if st == stateLong && pos.entryIdx < len(s.Bars)-1 {
		// Sparse data: bars exhausted before the forced-exit bar arrived.
		last := s.Bars[len(s.Bars)-1]
		return makeTrade(s, &pos, last.Time, last.Close*(1-exit.Slippage), domain.ExitReasonTimeExit, gap)
	}
	return nil
}

// tryEnter evaluates the entry guards on bar i and fills the position when
// they all hold. Bars where a required indicator is still warming up are
// skipped rather than failed.
func tryEnter(s *domain.Session, ind indicators.Set, entry EntryConfig, exit ExitConfig, i int, gap float64, pos *position) bool {
	b := s.Bars[i]
	minutes := domain.MinutesOfDay(b.Time)
	if minutes < entry.WindowStart.Minutes() || minutes > entry.WindowEnd.Minutes() {
		return false
	}
	if !requiredDefined(ind, entry, i) {
		return false
	}
	if entry.UseGapBounds {
		if math.IsNaN(gap) || gap < entry.GapMin || gap > entry.GapMax {
			return false
		}
	}
	if entry.RequireVWAP && !(b.Close > ind.VWAP[i]) {
		return false
	}
	if entry.RequireTrendAvg && !(b.Close > ind.TrendAvg[i]) {
		return false
	}
	if entry.RequireMomentum {
		if !(ind.Momentum[i] > momentumEntryThreshold && ind.Momentum[i] > ind.Momentum[i-1]) {
			return false
		}
	}
	if entry.RequireTrendDiff {
		if !(ind.TrendDiff[i] > ind.TrendDiff[i-1]) {
			return false
		}
	}

	pos.entryIdx = i
	pos.entryPrice = b.Close * (1 + exit.Slippage)
	pos.entryVWAP = ind.VWAP[i]
	pos.trailHigh = b.High
	pos.armed = false
	pos.pattern = Classify(b.Close, ind.VWAP[i], ind.TrendAvg[i], ind.Momentum[i], gap)
	return true
}

// requiredDefined reports whether every indicator the entry config depends
// on is defined at bar i. "Rising" predicates also need the previous bar.
func requiredDefined(ind indicators.Set, entry EntryConfig, i int) bool {
	if entry.RequireVWAP && math.IsNaN(ind.VWAP[i]) {
		return false
	}
	if entry.RequireTrendAvg && math.IsNaN(ind.TrendAvg[i]) {
		return false
	}
	if entry.RequireMomentum {
		if i == 0 || math.IsNaN(ind.Momentum[i]) || math.IsNaN(ind.Momentum[i-1]) {
			return false
		}
	}
	if entry.RequireTrendDiff {
		if i == 0 || math.IsNaN(ind.TrendDiff[i]) || math.IsNaN(ind.TrendDiff[i-1]) {
			return false
		}
	}
	return true
}

// manageExit advances the trailing state on bar i and returns the
// completed trade when an exit condition fires. Conditions are checked in
// priority order: trailing stop, stop loss, forced-exit time.
func manageExit(s *domain.Session, exit ExitConfig, i int, gap float64, pos *position) *domain.Trade {
	b := s.Bars[i]

	if b.High > pos.trailHigh {
		pos.trailHigh = b.High
	}
	if !pos.armed && pos.trailHigh >= pos.entryPrice*(1+exit.TrailingActivation) {
		pos.armed = true
	}

	if pos.armed {
		trigger := pos.trailHigh * (1 - exit.TrailingRetracement)
		if b.Low <= trigger {
			return makeTrade(s, pos, b.Time, trigger*(1-exit.Slippage), domain.ExitReasonTrailingStop, gap)
		}
	}

	stopLevel := pos.entryPrice * (1 + exit.StopLossFraction)
	if b.Low <= stopLevel {
		return makeTrade(s, pos, b.Time, stopLevel*(1-exit.Slippage), domain.ExitReasonStopLoss, gap)
	}

	if domain.MinutesOfDay(b.Time) >= exit.ForcedExit.Minutes() {
		return makeTrade(s, pos, b.Time, b.Close*(1-exit.Slippage), domain.ExitReasonTimeExit, gap)
	}
	return nil
}

func makeTrade(s *domain.Session, pos *position, exitTime time.Time, exitPrice float64, reason domain.ExitReason, gap float64) *domain.Trade {
	entryBar := s.Bars[pos.entryIdx]
	return &domain.Trade{
		Ticker:      s.Ticker,
		EntryTime:   entryBar.Time,
		EntryPrice:  pos.entryPrice,
		ExitTime:    exitTime,
		ExitPrice:   exitPrice,
		Reason:      reason,
		PNL:         (exitPrice - pos.entryPrice) / pos.entryPrice,
		GapFraction: gap,
		EntryVWAP:   pos.entryVWAP,
		Pattern:     pos.pattern,
	}
}
