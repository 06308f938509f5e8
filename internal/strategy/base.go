package strategy

import (
	"math"

	"github.com/yourusername/gatekeeper/internal/models"
)

// BaseRuleSet provides shared functionality for rule-sets.
type BaseRuleSet struct {
	Params models.StrategyParams
}

// ComputeATR returns the rolling average true range for the series.
// Entries before the warmup period are zero; callers must treat a zero
// ATR as "not yet computable".
func ComputeATR(bars []models.Bar, period int) []float64 {
	atr := make([]float64, len(bars))
	if period <= 0 || len(bars) == 0 {
		return atr
	}
	tr := make([]float64, len(bars))
	for i, b := range bars {
		r := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			if hc := math.Abs(b.High - prevClose); hc > r {
				r = hc
			}
			if lc := math.Abs(b.Low - prevClose); lc > r {
				r = lc
			}
		}
		tr[i] = r
	}
	sum := 0.0
	for i := range bars {
		sum += tr[i]
		if i >= period {
			sum -= tr[i-period]
		}
		if i >= period-1 {
			atr[i] = sum / float64(period)
		}
	}
	return atr
}

// EntryHourAllowed applies the session-hour filter.
func (b *BaseRuleSet) EntryHourAllowed(bar models.Bar) bool {
	if len(b.Params.AllowedEntryHours) == 0 {
		return true
	}
	hour := bar.Timestamp.Hour()
	for _, h := range b.Params.AllowedEntryHours {
		if hour == h {
			return true
		}
	}
	return false
}

// InitialStop places the stop beyond the extreme of the entry and
// reference bars, padded by an ATR-scaled buffer.
func (b *BaseRuleSet) InitialStop(side models.TradeSide, entry, reference models.Bar, atr float64) float64 {
	buffer := atr * b.Params.StopBufferATR
	if buffer <= 0 {
		buffer = 0.01
	}
	if side == models.SideLong {
		low := entry.Low
		if reference.Low < low {
			low = reference.Low
		}
		return low - buffer
	}
	high := entry.High
	if reference.High > high {
		high = reference.High
	}
	return high + buffer
}

// Target derives the profit target from the entry/stop distance and
// the configured reward-to-risk ratio.
func (b *BaseRuleSet) Target(side models.TradeSide, entryPrice, stopPrice float64) float64 {
	risk := math.Abs(entryPrice - stopPrice)
	if side == models.SideLong {
		return entryPrice + b.Params.RRTarget*risk
	}
	return entryPrice - b.Params.RRTarget*risk
}
