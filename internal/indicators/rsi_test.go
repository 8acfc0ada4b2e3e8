package indicators

import (
	"math"
	"testing"
)

func TestRSI(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		period    int
		nanPrefix int
		lastValue float64
	}{
		{
			name:      "mixed gains and losses",
			values:    []float64{100, 102, 101, 103, 102, 104},
			period:    3,
			nanPrefix: 3,
			lastValue: 77.272727,
		},
		{
			name:      "all gains",
			values:    []float64{100, 102, 104, 106},
			period:    3,
			nanPrefix: 3,
			lastValue: 100.0,
		},
		{
			name:      "all losses",
			values:    []float64{106, 104, 102, 100},
			period:    3,
			nanPrefix: 3,
			lastValue: 0.0,
		},
		{
			name:      "flat series is neutral",
			values:    []float64{100, 100, 100, 100},
			period:    3,
			nanPrefix: 3,
			lastValue: 50.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.values, tt.period)
			if len(got) != len(tt.values) {
				t.Fatalf("expected %d values, got %d", len(tt.values), len(got))
			}
			for i := 0; i < tt.nanPrefix; i++ {
				if !math.IsNaN(got[i]) {
					t.Errorf("index %d: expected NaN during warm-up, got %f", i, got[i])
				}
			}
			last := got[len(got)-1]
			if !almostEqual(last, tt.lastValue) {
				t.Errorf("expected final value %f, got %f", tt.lastValue, last)
			}
		})
	}
}

func TestRSI_InsufficientData(t *testing.T) {
	got := RSI([]float64{100, 101, 102}, 14)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN, got %f", i, v)
		}
	}
}
