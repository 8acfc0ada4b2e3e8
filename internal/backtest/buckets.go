package backtest

import (
	"fmt"
	"math"
	"sort"

	"forecaster/internal/domain"
)

// Bucket width constants for the diagnostic breakdowns.
const (
	gapBucketWidth  = 0.005 // 0.5 percentage points
	vwapBucketWidth = 0.002 // 0.2 percentage points
	timeBucketMins  = 5
)

// minBucketTrades is the sample floor below which a bucket is ignored when
// picking a best bucket, unless every bucket is below it.
const minBucketTrades = 2

// Bucket reports count, win rate and mean pnl for one slice of the trade set.
type Bucket struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	WinRate float64 `json:"win_rate"`
	MeanPNL float64 `json:"mean_pnl"`
}

// BucketByGap groups trades into 0.5pp opening-gap ranges. Trades with an
// undefined gap are left out.
func BucketByGap(trades []domain.Trade) []Bucket {
	return bucketBy(trades, func(t domain.Trade) (string, bool) {
		if math.IsNaN(t.GapFraction) {
			return "", false
		}
		return rangeKey(t.GapFraction, gapBucketWidth), true
	})
}

// BucketByVWAPDeviation groups trades into 0.2pp buckets of the entry
// price's deviation from the entry-time VWAP. Trades with an undefined
// entry VWAP are left out.
func BucketByVWAPDeviation(trades []domain.Trade) []Bucket {
	return bucketBy(trades, func(t domain.Trade) (string, bool) {
		if math.IsNaN(t.EntryVWAP) || t.EntryVWAP == 0 {
			return "", false
		}
		dev := (t.EntryPrice - t.EntryVWAP) / t.EntryVWAP
		return rangeKey(dev, vwapBucketWidth), true
	})
}

// BucketByEntryTime groups trades into 5-minute entry-time buckets.
func BucketByEntryTime(trades []domain.Trade) []Bucket {
	return bucketBy(trades, func(t domain.Trade) (string, bool) {
		h := t.EntryTime.Hour()
		m := (t.EntryTime.Minute() / timeBucketMins) * timeBucketMins
		return fmt.Sprintf("%02d:%02d", h, m), true
	})
}

// BucketByPattern groups trades by their qualitative pattern label.
func BucketByPattern(trades []domain.Trade) []Bucket {
	return bucketBy(trades, func(t domain.Trade) (string, bool) {
		return string(t.Pattern), true
	})
}

// BestBucket returns the bucket with the highest mean pnl among buckets
// holding at least minBucketTrades trades. When every bucket is below the
// floor, all buckets compete. Returns nil for an empty slice.
func BestBucket(buckets []Bucket) *Bucket {
	candidates := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Count >= minBucketTrades {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		candidates = buckets
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, b := range candidates[1:] {
		if b.MeanPNL > best.MeanPNL {
			best = b
		}
	}
	return &best
}

func bucketBy(trades []domain.Trade, keyFn func(domain.Trade) (string, bool)) []Bucket {
	groups := make(map[string][]domain.Trade)
	for _, t := range trades {
		key, ok := keyFn(t)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], t)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		st := ComputeStats(groups[k])
		out = append(out, Bucket{Key: k, Count: st.TradeCount, WinRate: st.WinRate, MeanPNL: st.Expectancy})
	}
	return out
}

// rangeKey renders a half-open fraction range [lo, lo+width) as a
// percentage label, e.g. "+0.50%..+1.00%".
func rangeKey(v, width float64) string {
	lo := math.Floor(v/width) * width
	return fmt.Sprintf("%+.2f%%..%+.2f%%", lo*100, (lo+width)*100)
}
