package indicators

import (
	"math"
	"testing"

	"forecaster/internal/domain"
)

func TestSessionVWAP(t *testing.T) {
	bars := []domain.Bar{
		{High: 102, Low: 98, Close: 100, Volume: 10},  // tp 100
		{High: 106, Low: 102, Close: 104, Volume: 10}, // tp 104
		{High: 110, Low: 106, Close: 108, Volume: 0},  // zero volume, carry forward
		{High: 110, Low: 106, Close: 108, Volume: 20}, // tp 108
	}

	got := SessionVWAP(bars)
	expected := []float64{100, 102, 102, 105}
	for i := range expected {
		if !almostEqual(got[i], expected[i]) {
			t.Errorf("index %d: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestSessionVWAP_ZeroVolumeOpen(t *testing.T) {
	bars := []domain.Bar{
		{High: 102, Low: 98, Close: 100, Volume: 0},
		{High: 102, Low: 98, Close: 100, Volume: 0},
		{High: 102, Low: 98, Close: 101, Volume: 5},
	}

	got := SessionVWAP(bars)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("expected NaN while cumulative volume is zero, got %v", got[:2])
	}
	tp := (102.0 + 98.0 + 101.0) / 3.0
	if !almostEqual(got[2], tp) {
		t.Errorf("expected %f once volume arrives, got %f", tp, got[2])
	}
}

func TestSessionVWAP_Empty(t *testing.T) {
	if got := SessionVWAP(nil); len(got) != 0 {
		t.Errorf("expected empty series, got %d values", len(got))
	}
}
