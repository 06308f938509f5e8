// Package evaluation implements the per-symbol evaluation stages and
// the promotion gate that fuses them into the tradable scope.
package evaluation

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/backtest"
	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/strategy"
)

// UniverseResult holds a symbol's full-history evaluation.
type UniverseResult struct {
	Symbol  string               `json:"symbol"`
	Metrics models.SymbolMetrics `json:"metrics"`
	Trades  []models.Trade       `json:"-"`
	Bars    int                  `json:"bars"`
}

// UniverseEvaluator computes full-history performance metrics for one
// symbol at a time via the backtest engine.
type UniverseEvaluator struct {
	sim    backtest.SimConfig
	logger *logrus.Logger
}

// NewUniverseEvaluator creates a universe evaluator.
func NewUniverseEvaluator(sim backtest.SimConfig, logger *logrus.Logger) *UniverseEvaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &UniverseEvaluator{sim: sim, logger: logger}
}

// Evaluate runs the rule-set over the full series and aggregates the
// trade log. Zero trades yields neutral metrics rather than an error.
func (e *UniverseEvaluator) Evaluate(symbol string, bars []models.Bar, rs strategy.RuleSet) UniverseResult {
	trades := backtest.Simulate(symbol, bars, rs, e.sim)
	metrics := backtest.ComputeMetrics(trades, len(bars))

	e.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"bars":       len(bars),
		"trades":     metrics.TradeCount,
		"expectancy": metrics.Expectancy,
	}).Debug("Universe evaluation complete")

	return UniverseResult{
		Symbol:  symbol,
		Metrics: metrics,
		Trades:  trades,
		Bars:    len(bars),
	}
}
