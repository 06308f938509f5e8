package strategy

import (
	"github.com/yourusername/gatekeeper/internal/models"
)

// DisplacementReclaim implements the displacement/reclaim intraday model.
// A displacement bar is a bar whose true range exceeds an ATR multiple;
// it marks a swept level (the displaced extreme). An entry fires when a
// later bar closes back through the swept level by an ATR-scaled reclaim
// buffer, in the direction opposite the displacement.
type DisplacementReclaim struct {
	BaseRuleSet
	MaxReclaimBars int
}

// NewDisplacementReclaim creates the rule-set with the given parameters.
func NewDisplacementReclaim(params models.StrategyParams) *DisplacementReclaim {
	return &DisplacementReclaim{
		BaseRuleSet:    BaseRuleSet{Params: params},
		MaxReclaimBars: 4,
	}
}

// Name returns the rule-set name.
func (d *DisplacementReclaim) Name() string {
	return "displacement_reclaim"
}

// Parameters returns the rule-set parameters.
func (d *DisplacementReclaim) Parameters() models.StrategyParams {
	return d.Params
}

// Evaluate scans the series and emits entry signals. It reads only bars
// at or before each candidate index, so fold sub-series evaluation stays
// free of lookahead.
func (d *DisplacementReclaim) Evaluate(bars []models.Bar) []Signal {
	if len(bars) < d.Params.ATRPeriod+2 {
		return nil
	}
	atr := ComputeATR(bars, d.Params.ATRPeriod)

	var signals []Signal
	for i := d.Params.ATRPeriod + 1; i < len(bars); i++ {
		sig, ok := d.evaluateAt(bars, atr, i)
		if !ok {
			continue
		}
		signals = append(signals, sig)
	}
	return signals
}

func (d *DisplacementReclaim) evaluateAt(bars []models.Bar, atr []float64, i int) (Signal, bool) {
	cur := bars[i]
	if !d.EntryHourAllowed(cur) {
		return Signal{}, false
	}

	// look back for a displacement bar within the reclaim window
	start := i - d.MaxReclaimBars
	if start < 1 {
		start = 1
	}
	for j := i - 1; j >= start; j-- {
		disp := bars[j]
		a := atr[j]
		if a <= 0 {
			continue
		}
		if disp.High-disp.Low < d.Params.DisplacementATRMult*a {
			continue
		}
		buffer := d.Params.ReclaimBufferATR * atr[i]
		down := disp.Close < disp.Open
		if down {
			// down displacement swept the low; a close reclaimed above it is long
			level := disp.Low
			if cur.Close > level+buffer {
				return Signal{
					Index:   i,
					Side:    models.SideLong,
					Reasons: []string{"DISPLACEMENT_DOWN", "RECLAIM_LONG"},
				}, true
			}
			return Signal{}, false
		}
		level := disp.High
		if cur.Close < level-buffer {
			return Signal{
				Index:   i,
				Side:    models.SideShort,
				Reasons: []string{"DISPLACEMENT_UP", "RECLAIM_SHORT"},
			}, true
		}
		return Signal{}, false
	}
	return Signal{}, false
}
