package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/strategy"
)

// stubRuleSet emits fixed signals with fixed stop/target placement so
// engine behavior can be asserted bar by bar.
type stubRuleSet struct {
	params  models.StrategyParams
	signals []strategy.Signal
	stop    float64
	target  float64
}

func (s *stubRuleSet) Name() string                          { return "stub" }
func (s *stubRuleSet) Parameters() models.StrategyParams     { return s.params }
func (s *stubRuleSet) Evaluate([]models.Bar) []strategy.Signal { return s.signals }
func (s *stubRuleSet) InitialStop(models.TradeSide, models.Bar, models.Bar, float64) float64 {
	return s.stop
}
func (s *stubRuleSet) Target(models.TradeSide, float64, float64) float64 {
	return s.target
}

func freeSim() SimConfig {
	return SimConfig{
		FeePerTrade:      decimal.Zero,
		SlippagePerTrade: decimal.Zero,
		CostMultiplier:   1.0,
	}
}

func seriesBar(minute int, o, h, l, c float64) models.Bar {
	return models.Bar{
		Timestamp: time.Date(2025, 6, 2, 14, minute, 0, 0, time.UTC),
		Open:      o, High: h, Low: l, Close: c, Volume: 1000,
	}
}

func TestSimulateEmptySeries(t *testing.T) {
	rs := &stubRuleSet{params: models.DefaultStrategyParams()}
	assert.Nil(t, Simulate("QQQ", nil, rs, freeSim()))
	assert.Nil(t, Simulate("QQQ", []models.Bar{seriesBar(0, 100, 101, 99, 100)}, nil, freeSim()))
}

func TestSimulateLongTargetHit(t *testing.T) {
	bars := []models.Bar{
		seriesBar(0, 100, 101, 99, 100),
		seriesBar(3, 100, 101, 99.5, 100), // entry at close 100
		seriesBar(6, 100, 101, 99.8, 100.5),
		seriesBar(9, 100.5, 102.5, 100, 102), // high crosses target 102
	}
	rs := &stubRuleSet{
		params:  models.DefaultStrategyParams(),
		signals: []strategy.Signal{{Index: 1, Side: models.SideLong, Reasons: []string{"RECLAIM_LONG"}}},
		stop:    99,
		target:  102,
	}

	trades := Simulate("QQQ", bars, rs, freeSim())
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, "QQQ", trade.Symbol)
	assert.Equal(t, models.SideLong, trade.Side)
	assert.Equal(t, models.ExitTargetHit, trade.Exit)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 102.0, trade.ExitPrice)
	assert.InDelta(t, 2.0, trade.PnL, 1e-9)
	assert.InDelta(t, 2.0, trade.RMultiple, 1e-9) // risk = 100 - 99 = 1
	assert.Equal(t, 2, trade.BarsHeld)
	assert.Equal(t, []string{"RECLAIM_LONG"}, trade.EntryReasons)
}

func TestSimulateStopPriorityWhenBothCrossed(t *testing.T) {
	bars := []models.Bar{
		seriesBar(0, 100, 101, 99, 100),
		seriesBar(3, 100, 101, 99.5, 100),
		// one wide bar crosses both the stop (99) and the target (102)
		seriesBar(6, 100, 103, 98, 101),
	}
	rs := &stubRuleSet{
		params:  models.DefaultStrategyParams(),
		signals: []strategy.Signal{{Index: 1, Side: models.SideLong}},
		stop:    99,
		target:  102,
	}

	trades := Simulate("QQQ", bars, rs, freeSim())
	require.Len(t, trades, 1)
	assert.Equal(t, models.ExitStopHit, trades[0].Exit)
	assert.Equal(t, 99.0, trades[0].ExitPrice)
	assert.InDelta(t, -1.0, trades[0].PnL, 1e-9)
}

func TestSimulateShortTrade(t *testing.T) {
	bars := []models.Bar{
		seriesBar(0, 100, 101, 99, 100),
		seriesBar(3, 100, 101, 99.5, 100),
		seriesBar(6, 100, 100.5, 97.5, 98), // low crosses short target 98
	}
	rs := &stubRuleSet{
		params:  models.DefaultStrategyParams(),
		signals: []strategy.Signal{{Index: 1, Side: models.SideShort}},
		stop:    101,
		target:  98,
	}

	trades := Simulate("QQQ", bars, rs, freeSim())
	require.Len(t, trades, 1)
	assert.Equal(t, models.ExitTargetHit, trades[0].Exit)
	assert.InDelta(t, 2.0, trades[0].PnL, 1e-9)
}

func TestSimulateSeriesEndClose(t *testing.T) {
	bars := []models.Bar{
		seriesBar(0, 100, 101, 99, 100),
		seriesBar(3, 100, 101, 99.5, 100),
		seriesBar(6, 100, 101, 99.5, 100.8), // neither stop nor target reached
	}
	rs := &stubRuleSet{
		params:  models.DefaultStrategyParams(),
		signals: []strategy.Signal{{Index: 1, Side: models.SideLong}},
		stop:    98,
		target:  105,
	}

	trades := Simulate("QQQ", bars, rs, freeSim())
	require.Len(t, trades, 1)
	assert.Equal(t, models.ExitSeriesEnd, trades[0].Exit)
	assert.Equal(t, 100.8, trades[0].ExitPrice)
	assert.InDelta(t, 0.8, trades[0].PnL, 1e-9)
}

func TestSimulateDeductsPerTradeCost(t *testing.T) {
	bars := []models.Bar{
		seriesBar(0, 100, 101, 99, 100),
		seriesBar(3, 100, 101, 99.5, 100),
		seriesBar(6, 100.5, 102.5, 100, 102),
	}
	rs := &stubRuleSet{
		params:  models.DefaultStrategyParams(),
		signals: []strategy.Signal{{Index: 1, Side: models.SideLong}},
		stop:    99,
		target:  102,
	}

	cfg := SimConfig{
		FeePerTrade:      decimal.NewFromFloat(0.02),
		SlippagePerTrade: decimal.NewFromFloat(0.03),
		CostMultiplier:   1.0,
	}
	trades := Simulate("QQQ", bars, rs, cfg)
	require.Len(t, trades, 1)
	assert.InDelta(t, 2.0-0.05, trades[0].PnL, 1e-9)

	// Doubling the multiplier doubles the deducted cost.
	stressed := Simulate("QQQ", bars, rs, cfg.Stressed(2.0))
	require.Len(t, stressed, 1)
	assert.InDelta(t, 2.0-0.10, stressed[0].PnL, 1e-9)
}

func TestSimulateDeterministic(t *testing.T) {
	bars := []models.Bar{
		seriesBar(0, 100, 101, 99, 100),
		seriesBar(3, 100, 101, 99.5, 100),
		seriesBar(6, 100, 103, 98, 101),
		seriesBar(9, 101, 102, 100, 101.5),
	}
	rs := &stubRuleSet{
		params:  models.DefaultStrategyParams(),
		signals: []strategy.Signal{{Index: 1, Side: models.SideLong}},
		stop:    99,
		target:  102,
	}

	first := Simulate("QQQ", bars, rs, freeSim())
	second := Simulate("QQQ", bars, rs, freeSim())
	assert.Equal(t, first, second)
}

func TestPerTradeCost(t *testing.T) {
	cfg := SimConfig{
		FeePerTrade:      decimal.NewFromFloat(0.02),
		SlippagePerTrade: decimal.NewFromFloat(0.03),
		CostMultiplier:   1.0,
	}
	assert.InDelta(t, 0.05, cfg.PerTradeCost(), 1e-12)
	assert.InDelta(t, 0.10, cfg.Stressed(2.0).PerTradeCost(), 1e-12)

	// A zero multiplier is treated as unstressed, never as free trading.
	cfg.CostMultiplier = 0
	assert.InDelta(t, 0.05, cfg.PerTradeCost(), 1e-12)
}
