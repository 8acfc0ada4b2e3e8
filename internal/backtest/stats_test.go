package backtest

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"forecaster/internal/domain"
)

func tradesWithPNL(pnls ...float64) []domain.Trade {
	out := make([]domain.Trade, len(pnls))
	for i, p := range pnls {
		out[i] = domain.Trade{PNL: p}
	}
	return out
}

func TestComputeStats(t *testing.T) {
	t.Run("mixed winners and one loser", func(t *testing.T) {
		// Three wins of +1% and one loss of -2% across two tickers.
		st := ComputeStats(tradesWithPNL(0.01, 0.01, 0.01, -0.02))
		assert.Equal(t, 4, st.TradeCount)
		assert.InDelta(t, 0.75, st.WinRate, 1e-12)
		assert.InDelta(t, 1.5, st.ProfitFactor, 1e-9)
		assert.InDelta(t, 0.0025, st.Expectancy, 1e-12)
	})

	t.Run("no losses yields infinite profit factor", func(t *testing.T) {
		st := ComputeStats(tradesWithPNL(0.01, 0.02))
		assert.True(t, math.IsInf(st.ProfitFactor, 1))
		assert.Equal(t, 1.0, st.WinRate)
	})

	t.Run("all flat trades", func(t *testing.T) {
		st := ComputeStats(tradesWithPNL(0, 0))
		assert.Equal(t, 0.0, st.ProfitFactor)
		assert.Equal(t, 0.0, st.WinRate)
		assert.Equal(t, 0.0, st.Expectancy)
	})

	t.Run("empty", func(t *testing.T) {
		st := ComputeStats(nil)
		assert.Equal(t, Stats{}, st)
	})
}

func TestStatsJSON_InfiniteProfitFactorAsNull(t *testing.T) {
	st := ComputeStats(tradesWithPNL(0.01, 0.02))

	data, err := json.Marshal(st)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"profit_factor":null`)

	var out Stats
	assert.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, math.IsInf(out.ProfitFactor, 1))
	assert.Equal(t, st.TradeCount, out.TradeCount)
}

func TestStatsJSON_FiniteProfitFactorRoundTrips(t *testing.T) {
	st := ComputeStats(tradesWithPNL(0.01, 0.01, 0.01, -0.02))

	data, err := json.Marshal(st)
	assert.NoError(t, err)

	var out Stats
	assert.NoError(t, json.Unmarshal(data, &out))
	assert.InDelta(t, 1.5, out.ProfitFactor, 1e-9)
}
