package models

// StrategyParams are the tunable rule-set parameters. They are the
// dimensions of the challenger search grid and the configuration
// carried by the persisted champion.
type StrategyParams struct {
	DisplacementATRMult float64 `json:"displacement_atr_mult"`
	RRTarget            float64 `json:"rr_target"`
	ReclaimBufferATR    float64 `json:"reclaim_buffer_atr"`
	StopBufferATR       float64 `json:"stop_buffer_atr"`
	ATRPeriod           int     `json:"atr_period"`
	AllowedEntryHours   []int   `json:"allowed_entry_hours"`
}

// DefaultStrategyParams returns the baseline rule-set parameters.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		DisplacementATRMult: 1.1,
		RRTarget:            2.5,
		ReclaimBufferATR:    0.03,
		StopBufferATR:       0.10,
		ATRPeriod:           14,
		AllowedEntryHours:   []int{10},
	}
}
