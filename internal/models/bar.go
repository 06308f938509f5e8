package models

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents one OHLCV aggregation over a fixed time interval.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate checks the OHLC price invariant and volume sign.
func (b Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return fmt.Errorf("bar has zero timestamp")
	}
	lo := b.Open
	if b.Close < lo {
		lo = b.Close
	}
	hi := b.Open
	if b.Close > hi {
		hi = b.Close
	}
	if b.Low > lo {
		return fmt.Errorf("bar at %s: low %.6f above min(open,close) %.6f", b.Timestamp.Format(time.RFC3339), b.Low, lo)
	}
	if b.High < hi {
		return fmt.Errorf("bar at %s: high %.6f below max(open,close) %.6f", b.Timestamp.Format(time.RFC3339), b.High, hi)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar at %s: negative volume %.2f", b.Timestamp.Format(time.RFC3339), b.Volume)
	}
	return nil
}

// NormalizeBars sorts bars chronologically and deduplicates by timestamp,
// keeping the last-seen bar for a given timestamp (last-write-wins).
func NormalizeBars(bars []Bar) []Bar {
	if len(bars) == 0 {
		return nil
	}
	byTime := make(map[int64]Bar, len(bars))
	for _, b := range bars {
		byTime[b.Timestamp.UnixNano()] = b
	}
	out := make([]Bar, 0, len(byTime))
	for _, b := range byTime {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ValidateSeries verifies a bar series is strictly increasing in timestamp
// and that every bar satisfies the OHLC invariant.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("series not strictly increasing at index %d (%s)", i, b.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
