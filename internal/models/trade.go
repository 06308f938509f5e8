package models

import "time"

// TradeSide indicates trade direction.
type TradeSide string

const (
	SideLong  TradeSide = "long"
	SideShort TradeSide = "short"
)

// ExitReason records why a simulated position was closed.
type ExitReason string

const (
	ExitStopHit    ExitReason = "STOP_HIT"
	ExitTargetHit  ExitReason = "TARGET_HIT"
	ExitSeriesEnd  ExitReason = "SERIES_END"
)

// Trade is one simulated round trip produced by the backtest engine.
type Trade struct {
	Symbol       string     `json:"symbol"`
	Side         TradeSide  `json:"side"`
	EntryTime    time.Time  `json:"entry_ts"`
	ExitTime     time.Time  `json:"exit_ts"`
	EntryPrice   float64    `json:"entry_price"`
	ExitPrice    float64    `json:"exit_price"`
	StopPrice    float64    `json:"stop_price"`
	TargetPrice  float64    `json:"target_price"`
	PnL          float64    `json:"pnl_abs"`
	RMultiple    float64    `json:"r_multiple"`
	BarsHeld     int        `json:"bars_held"`
	EntryReasons []string   `json:"entry_reasons"`
	Exit         ExitReason `json:"exit_reason"`
}
