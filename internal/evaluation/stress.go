package evaluation

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/backtest"
	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/strategy"
)

// StressResult is a symbol's evaluation under amplified costs.
// DegradationRatio compares stressed to base expectancy; it is defined
// as 0 when the base expectancy is 0, so there is no division by zero.
type StressResult struct {
	Symbol           string               `json:"symbol"`
	Metrics          models.SymbolMetrics `json:"metrics"`
	DegradationRatio float64              `json:"degradation_ratio"`
}

// StressTester re-runs the universe evaluation with transaction costs
// multiplied by a stress factor to test cost robustness.
type StressTester struct {
	sim    backtest.SimConfig
	factor float64
	logger *logrus.Logger
}

// NewStressTester creates a stress tester. A factor at or below 1 is
// raised to the default of 2 so the test always amplifies costs.
func NewStressTester(sim backtest.SimConfig, factor float64, logger *logrus.Logger) *StressTester {
	if factor <= 1 {
		factor = 2.0
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &StressTester{sim: sim, factor: factor, logger: logger}
}

// Test evaluates the symbol under the stressed cost model and relates
// the result to the base metrics.
func (t *StressTester) Test(symbol string, bars []models.Bar, rs strategy.RuleSet, base models.SymbolMetrics) StressResult {
	stressedCfg := t.sim.Stressed(t.sim.CostMultiplier * t.factor)
	trades := backtest.Simulate(symbol, bars, rs, stressedCfg)
	metrics := backtest.ComputeMetrics(trades, len(bars))

	ratio := 0.0
	if base.Expectancy != 0 {
		ratio = metrics.Expectancy / base.Expectancy
	}

	t.logger.WithFields(logrus.Fields{
		"symbol":            symbol,
		"stress_factor":     t.factor,
		"base_expectancy":   base.Expectancy,
		"stress_expectancy": metrics.Expectancy,
		"degradation_ratio": ratio,
	}).Debug("Cost stress evaluation complete")

	return StressResult{Symbol: symbol, Metrics: metrics, DegradationRatio: ratio}
}
