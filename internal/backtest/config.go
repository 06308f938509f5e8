package backtest

import (
	"github.com/shopspring/decimal"
)

// SimConfig configures the trade simulation cost model. Fees and
// slippage are absolute per-round-trip amounts; the stress tester
// re-runs the simulation with CostMultiplier raised above 1.
type SimConfig struct {
	FeePerTrade      decimal.Decimal
	SlippagePerTrade decimal.Decimal
	CostMultiplier   float64
}

// DefaultSimConfig returns the base (unstressed) cost model.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		FeePerTrade:      decimal.NewFromFloat(0.02),
		SlippagePerTrade: decimal.NewFromFloat(0.03),
		CostMultiplier:   1.0,
	}
}

// Stressed returns a copy of the config with the cost multiplier
// replaced by the given stress factor.
func (c SimConfig) Stressed(factor float64) SimConfig {
	out := c
	out.CostMultiplier = factor
	return out
}

// PerTradeCost is the absolute cost deducted from each round trip.
// Decimal arithmetic keeps the fee scaling exact before the result
// joins the float metric pipeline.
func (c SimConfig) PerTradeCost() float64 {
	mult := c.CostMultiplier
	if mult <= 0 {
		mult = 1.0
	}
	cost := c.FeePerTrade.Add(c.SlippagePerTrade).Mul(decimal.NewFromFloat(mult))
	f, _ := cost.Float64()
	return f
}
