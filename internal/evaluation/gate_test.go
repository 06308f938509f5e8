package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/models"
)

func gateConfig() GateConfig {
	return GateConfig{
		MinTradeCount:        40,
		MinProfitFactor:      1.10,
		MinStability:         0.75,
		MaxStressDegradation: 0.30,
		FallbackSymbol:       "QQQ",
	}
}

func passingInputs(symbol string) (UniverseResult, RollingResult, StressResult) {
	uni := UniverseResult{
		Symbol: symbol,
		Metrics: models.SymbolMetrics{
			TradeCount:   60,
			WinRate:      0.55,
			ProfitFactor: 1.4,
			Expectancy:   0.05,
		},
	}
	roll := RollingResult{Symbol: symbol, Stability: 0.75, MeanExpectancy: 0.04}
	stress := StressResult{Symbol: symbol, DegradationRatio: 0.85}
	return uni, roll, stress
}

func inputsFor(symbols ...string) GateInputs {
	in := GateInputs{
		Universe: make(map[string]UniverseResult),
		Rolling:  make(map[string]RollingResult),
		Stress:   make(map[string]StressResult),
	}
	for _, s := range symbols {
		uni, roll, stress := passingInputs(s)
		in.Universe[s] = uni
		in.Rolling[s] = roll
		in.Stress[s] = stress
	}
	return in
}

func TestGateAllPass(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)
	in := inputsFor("QQQ", "SPY")

	verdicts, scope := gate.Evaluate([]string{"SPY", "QQQ"}, in)
	require.Len(t, verdicts, 2)

	// verdicts come out in symbol order
	assert.Equal(t, "QQQ", verdicts[0].Symbol)
	assert.Equal(t, "SPY", verdicts[1].Symbol)
	assert.True(t, verdicts[0].Passed)
	assert.True(t, verdicts[1].Passed)

	assert.Equal(t, []string{"QQQ", "SPY"}, scope.Symbols)
	assert.False(t, scope.IsFallback)
}

func TestGateSinglePassNarrowsScope(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)
	in := inputsFor("QQQ", "SPY")

	// SPY stalls on stability
	roll := in.Rolling["SPY"]
	roll.Stability = 0.5
	in.Rolling["SPY"] = roll

	verdicts, scope := gate.Evaluate([]string{"QQQ", "SPY"}, in)
	require.Len(t, verdicts, 2)
	assert.True(t, verdicts[0].Passed)
	assert.False(t, verdicts[1].Passed)
	assert.Equal(t, []models.ReasonCode{models.ReasonStability}, verdicts[1].Reasons)

	assert.Equal(t, []string{"QQQ"}, scope.Symbols)
	assert.False(t, scope.IsFallback)
}

func TestGateAllFailActivatesFallback(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)
	in := inputsFor("AAPL", "SPY")
	for _, s := range []string{"AAPL", "SPY"} {
		uni := in.Universe[s]
		uni.Metrics.ProfitFactor = 0.9
		in.Universe[s] = uni
	}

	verdicts, scope := gate.Evaluate([]string{"AAPL", "SPY"}, in)
	for _, v := range verdicts {
		assert.False(t, v.Passed)
	}
	assert.Equal(t, []string{"QQQ"}, scope.Symbols)
	assert.True(t, scope.IsFallback)
}

func TestGateRecordsAllFailedChecks(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)
	in := inputsFor("SPY")

	uni := in.Universe["SPY"]
	uni.Metrics.TradeCount = 10
	uni.Metrics.ProfitFactor = 0.8
	in.Universe["SPY"] = uni
	roll := in.Rolling["SPY"]
	roll.Stability = 0.25
	in.Rolling["SPY"] = roll
	stress := in.Stress["SPY"]
	stress.DegradationRatio = 0.4
	in.Stress["SPY"] = stress

	verdicts, _ := gate.Evaluate([]string{"SPY"}, in)
	require.Len(t, verdicts, 1)
	assert.ElementsMatch(t, []models.ReasonCode{
		models.ReasonMinTrades,
		models.ReasonProfitFactor,
		models.ReasonStability,
		models.ReasonStressDegradation,
	}, verdicts[0].Reasons)
}

func TestGateMissingMetric(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)

	t.Run("absent from inputs", func(t *testing.T) {
		in := inputsFor("QQQ")
		verdicts, _ := gate.Evaluate([]string{"QQQ", "SPY"}, in)
		require.Len(t, verdicts, 2)
		assert.False(t, verdicts[1].Passed)
		assert.Contains(t, verdicts[1].Reasons, models.ReasonMissingMetric)
	})

	t.Run("NaN input degrades to fail", func(t *testing.T) {
		in := inputsFor("QQQ")
		stress := in.Stress["QQQ"]
		stress.DegradationRatio = math.NaN()
		in.Stress["QQQ"] = stress

		verdicts, scope := gate.Evaluate([]string{"QQQ"}, in)
		require.Len(t, verdicts, 1)
		assert.False(t, verdicts[0].Passed)
		assert.Contains(t, verdicts[0].Reasons, models.ReasonMissingMetric)
		assert.True(t, scope.IsFallback)
	})
}

func TestGateInsufficientData(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)
	in := inputsFor("QQQ")
	roll := in.Rolling["QQQ"]
	roll.InsufficientData = true
	roll.Stability = 0
	in.Rolling["QQQ"] = roll

	verdicts, _ := gate.Evaluate([]string{"QQQ"}, in)
	require.Len(t, verdicts, 1)
	assert.Contains(t, verdicts[0].Reasons, models.ReasonInsufficientData)
}

func TestBuildPromotionReport(t *testing.T) {
	gate := NewPromotionGate(gateConfig(), nil)
	in := inputsFor("QQQ", "SPY")
	roll := in.Rolling["SPY"]
	roll.Stability = 0.25
	in.Rolling["SPY"] = roll
	stress := in.Stress["SPY"]
	stress.DegradationRatio = 0.5
	in.Stress["SPY"] = stress

	verdicts, scope := gate.Evaluate([]string{"QQQ", "SPY"}, in)
	report := BuildPromotionReport(verdicts, in, scope)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "QQQ", report.Rows[0].Symbol)
	assert.True(t, report.Rows[0].Passed)
	assert.Equal(t, "SPY", report.Rows[1].Symbol)
	assert.InDelta(t, 0.25, report.Rows[1].Stability, 1e-9)

	assert.Equal(t, 1, report.Attrition[models.ReasonStability])
	assert.Equal(t, 1, report.Attrition[models.ReasonStressDegradation])
	assert.Equal(t, 0, report.Attrition[models.ReasonMinTrades])

	rendered := report.RenderConsole()
	assert.Contains(t, rendered, "Promotion Matrix")
	assert.Contains(t, rendered, "QQQ")
	assert.Contains(t, rendered, "min_stability")
	assert.Contains(t, rendered, "Tradable scope: QQQ")
}
