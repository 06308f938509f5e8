package strategy

import (
	"github.com/yourusername/gatekeeper/internal/models"
)

// Signal represents an entry signal emitted by a rule-set at a bar index.
type Signal struct {
	Index   int              `json:"index"`
	Side    models.TradeSide `json:"side"`
	Reasons []string         `json:"reasons"`
}

// RuleSet defines the entry/exit logic consumed by the backtest engine.
// Implementations must be pure functions of the bar series: identical
// input always yields identical signals, with no wall-clock dependence.
type RuleSet interface {
	Name() string
	Parameters() models.StrategyParams
	Evaluate(bars []models.Bar) []Signal
	InitialStop(side models.TradeSide, entry, reference models.Bar, atr float64) float64
	Target(side models.TradeSide, entryPrice, stopPrice float64) float64
}
