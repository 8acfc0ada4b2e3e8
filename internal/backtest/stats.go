package backtest

import (
	"encoding/json"
	"math"

	"forecaster/internal/domain"
)

// Stats holds the summary statistics for a set of trades.
type Stats struct {
	TradeCount   int     `json:"trade_count"`
	WinRate      float64 `json:"win_rate"`      // Fraction of trades with positive pnl
	ProfitFactor float64 `json:"profit_factor"` // Sum of wins over absolute sum of losses; +Inf when no losses
	Expectancy   float64 `json:"expectancy"`    // Mean pnl per trade
}

// MarshalJSON renders the +Inf profit factor sentinel as null, since JSON
// has no infinity literal.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias struct {
		TradeCount   int      `json:"trade_count"`
		WinRate      float64  `json:"win_rate"`
		ProfitFactor *float64 `json:"profit_factor"`
		Expectancy   float64  `json:"expectancy"`
	}
	a := alias{
		TradeCount: s.TradeCount,
		WinRate:    s.WinRate,
		Expectancy: s.Expectancy,
	}
	if !math.IsInf(s.ProfitFactor, 0) {
		pf := s.ProfitFactor
		a.ProfitFactor = &pf
	}
	return json.Marshal(a)
}

// UnmarshalJSON restores the +Inf sentinel from a null profit factor.
func (s *Stats) UnmarshalJSON(data []byte) error {
	type alias struct {
		TradeCount   int      `json:"trade_count"`
		WinRate      float64  `json:"win_rate"`
		ProfitFactor *float64 `json:"profit_factor"`
		Expectancy   float64  `json:"expectancy"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	s.TradeCount = a.TradeCount
	s.WinRate = a.WinRate
	s.Expectancy = a.Expectancy
	if a.ProfitFactor != nil {
		s.ProfitFactor = *a.ProfitFactor
	} else {
		s.ProfitFactor = math.Inf(1)
	}
	return nil
}

// ComputeStats derives summary statistics from a trade set. With zero
// trades every field is zero. Profit factor is the +Inf sentinel when
// there is at least one win and no losing trade.
func ComputeStats(trades []domain.Trade) Stats {
	var s Stats
	s.TradeCount = len(trades)
	if s.TradeCount == 0 {
		return s
	}

	var wins int
	var grossWin, grossLoss, total float64
	for _, t := range trades {
		total += t.PNL
		if t.PNL > 0 {
			wins++
			grossWin += t.PNL
		} else {
			grossLoss += -t.PNL
		}
	}

	s.WinRate = float64(wins) / float64(s.TradeCount)
	s.Expectancy = total / float64(s.TradeCount)
	switch {
	case grossLoss > 0:
		s.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}
	return s
}
