package indicators

import "math"

// MACDHist computes the MACD histogram series: the difference between the
// fast and slow EMAs of the input, minus a signal-period EMA of that
// difference. Entries are NaN until all three EMAs have initialized
// (index slowPeriod+signalPeriod-2 onward).
func MACDHist(values []float64, fastPeriod, slowPeriod, signalPeriod int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if fastPeriod <= 0 || slowPeriod <= fastPeriod || signalPeriod <= 0 {
		return out
	}
	if len(values) < slowPeriod+signalPeriod-1 {
		return out
	}

	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	// The MACD line is defined from the slow EMA's seed onward. The signal
	// EMA is seeded over the first signalPeriod defined MACD values.
	macd := make([]float64, 0, len(values)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(values); i++ {
		macd = append(macd, fast[i]-slow[i])
	}
	signal := EMA(macd, signalPeriod)

	for i, s := range signal {
		if !math.IsNaN(s) {
			out[i+slowPeriod-1] = macd[i] - s
		}
	}
	return out
}
