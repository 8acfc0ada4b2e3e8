package indicators

import (
	"math"

	"forecaster/internal/domain"
)

// SessionVWAP computes a session-cumulative volume-weighted average price
// series: running sum of typical-price*volume over running sum of volume,
// from the first bar onward. Typical price is (high+low+close)/3. When the
// cumulative volume is still zero the previous value is carried forward
// (NaN until the first bar with volume).
func SessionVWAP(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	var sumPV, sumV float64
	prev := math.NaN()
	for i, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3.0
		sumPV += tp * b.Volume
		sumV += b.Volume
		if sumV == 0 {
			out[i] = prev
			continue
		}
		prev = sumPV / sumV
		out[i] = prev
	}
	return out
}
