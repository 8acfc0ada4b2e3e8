package indicators

import (
	"math"

	"forecaster/internal/domain"
)

// EMA computes an exponential moving average series over the input values
// with smoothing factor 2/(period+1). The first period-1 entries are NaN;
// the value at index period-1 is seeded with the simple average of the
// first period inputs.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	multiplier := 2.0 / float64(period+1)
	ema := seed
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// Closes extracts the close series from a bar sequence.
func Closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
