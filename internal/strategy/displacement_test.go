package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/models"
)

func testParams() models.StrategyParams {
	return models.StrategyParams{
		DisplacementATRMult: 1.1,
		RRTarget:            2.5,
		ReclaimBufferATR:    0.03,
		StopBufferATR:       0.10,
		ATRPeriod:           3,
	}
}

func bar(minute, hour int, o, h, l, c float64) models.Bar {
	return models.Bar{
		Timestamp: time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC),
		Open:      o, High: h, Low: l, Close: c, Volume: 1000,
	}
}

func quietBars(hour, n int) []models.Bar {
	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, bar(i*3, hour, 100, 100.5, 99.5, 100))
	}
	return bars
}

func TestComputeATR(t *testing.T) {
	bars := []models.Bar{
		bar(0, 14, 100, 101, 99, 100),      // TR 2
		bar(3, 14, 100, 102, 100, 101),     // TR max(2, 2, 0) = 2
		bar(6, 14, 102, 103, 101, 102.5),   // TR max(2, 2, 0) = 2
	}
	atr := ComputeATR(bars, 2)
	require.Len(t, atr, 3)
	assert.Equal(t, 0.0, atr[0]) // warmup
	assert.InDelta(t, 2.0, atr[1], 1e-9)
	assert.InDelta(t, 2.0, atr[2], 1e-9)

	assert.Equal(t, []float64{0, 0, 0}, ComputeATR(bars, 0))
	assert.Empty(t, ComputeATR(nil, 2))
}

func TestEvaluateLongAfterDownDisplacement(t *testing.T) {
	bars := quietBars(14, 3)
	// down displacement sweeps the low
	bars = append(bars, bar(9, 14, 100, 100.2, 96, 97))
	// close reclaims well above the swept low
	bars = append(bars, bar(12, 14, 97, 97.5, 96.5, 97.2))

	rs := NewDisplacementReclaim(testParams())
	signals := rs.Evaluate(bars)
	require.NotEmpty(t, signals)

	sig := signals[0]
	assert.Equal(t, 4, sig.Index)
	assert.Equal(t, models.SideLong, sig.Side)
	assert.Equal(t, []string{"DISPLACEMENT_DOWN", "RECLAIM_LONG"}, sig.Reasons)
}

func TestEvaluateShortAfterUpDisplacement(t *testing.T) {
	bars := quietBars(14, 3)
	// up displacement sweeps the high
	bars = append(bars, bar(9, 14, 100, 104.2, 100, 103))
	// close reclaims well below the swept high
	bars = append(bars, bar(12, 14, 103, 103.5, 102.5, 102.8))

	rs := NewDisplacementReclaim(testParams())
	signals := rs.Evaluate(bars)
	require.NotEmpty(t, signals)

	sig := signals[0]
	assert.Equal(t, 4, sig.Index)
	assert.Equal(t, models.SideShort, sig.Side)
	assert.Equal(t, []string{"DISPLACEMENT_UP", "RECLAIM_SHORT"}, sig.Reasons)
}

func TestEvaluateRespectsSessionHours(t *testing.T) {
	bars := quietBars(14, 3)
	bars = append(bars, bar(9, 14, 100, 100.2, 96, 97))
	bars = append(bars, bar(12, 14, 97, 97.5, 96.5, 97.2))

	params := testParams()
	params.AllowedEntryHours = []int{10} // series is at hour 14
	rs := NewDisplacementReclaim(params)
	assert.Empty(t, rs.Evaluate(bars))
}

func TestEvaluateNoSignalWithoutReclaim(t *testing.T) {
	bars := quietBars(14, 3)
	bars = append(bars, bar(9, 14, 100, 100.2, 96, 97))
	// close stays pinned at the swept low, no reclaim
	bars = append(bars, bar(12, 14, 97, 97.1, 95.9, 96.0))

	rs := NewDisplacementReclaim(testParams())
	assert.Empty(t, rs.Evaluate(bars))
}

func TestEvaluateSeriesTooShort(t *testing.T) {
	rs := NewDisplacementReclaim(testParams())
	assert.Nil(t, rs.Evaluate(quietBars(14, 4))) // needs ATRPeriod+2 bars
	assert.Nil(t, rs.Evaluate(nil))
}

func TestInitialStopAndTarget(t *testing.T) {
	base := BaseRuleSet{Params: testParams()}
	entry := bar(3, 14, 100, 100.5, 99.5, 100)
	reference := bar(0, 14, 100, 100.2, 99.0, 99.8)

	stop := base.InitialStop(models.SideLong, entry, reference, 1.0)
	assert.InDelta(t, 98.9, stop, 1e-9) // below the lower low, 0.1 ATR buffer

	stop = base.InitialStop(models.SideShort, entry, reference, 1.0)
	assert.InDelta(t, 100.6, stop, 1e-9)

	// zero ATR falls back to the minimum buffer
	stop = base.InitialStop(models.SideLong, entry, reference, 0)
	assert.InDelta(t, 98.99, stop, 1e-9)

	assert.InDelta(t, 102.5, base.Target(models.SideLong, 100, 99), 1e-9)
	assert.InDelta(t, 97.5, base.Target(models.SideShort, 100, 101), 1e-9)
}
