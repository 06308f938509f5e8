package models

// ReasonCode identifies a failed promotion check. Every failed verdict
// carries at least one reason so the attrition funnel report can show
// where candidates dropped out.
type ReasonCode string

const (
	ReasonMinTrades         ReasonCode = "min_trade_count"
	ReasonProfitFactor      ReasonCode = "min_profit_factor"
	ReasonStability         ReasonCode = "min_stability"
	ReasonStressDegradation ReasonCode = "max_stress_degradation"
	ReasonInsufficientData  ReasonCode = "insufficient_data"
	ReasonMissingMetric     ReasonCode = "missing_metric"
)

// GateVerdict is the promotion gate's per-symbol decision.
type GateVerdict struct {
	Symbol  string       `json:"symbol"`
	Passed  bool         `json:"passed"`
	Reasons []ReasonCode `json:"reasons,omitempty"`
}

// TradableScope is the gate-derived set of symbols eligible for the
// current run. It is never empty: when no symbol passes, it contains
// exactly the mandated fallback symbol with IsFallback set.
type TradableScope struct {
	Symbols    []string `json:"symbols"`
	IsFallback bool     `json:"is_fallback"`
}

// Contains reports whether the scope includes the given symbol.
func (s TradableScope) Contains(symbol string) bool {
	for _, sym := range s.Symbols {
		if sym == symbol {
			return true
		}
	}
	return false
}
