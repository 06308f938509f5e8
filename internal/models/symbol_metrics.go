package models

// SymbolMetrics is the per-symbol aggregate computed from a simulated
// trade log over a bar series. It is recomputed fresh on every run and
// never mutated incrementally.
type SymbolMetrics struct {
	TradeCount   int     `json:"trade_count"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
	AvgR         float64 `json:"avg_r"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	ExposureTime float64 `json:"exposure_time"`
}

// NeutralMetrics returns the defaulted metrics used when a symbol produced no
// trades. Untradeable symbols are a normal outcome, not an error.
func NeutralMetrics() SymbolMetrics {
	return SymbolMetrics{}
}
