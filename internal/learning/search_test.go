package learning

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/backtest"
	"github.com/yourusername/gatekeeper/internal/evaluation"
	"github.com/yourusername/gatekeeper/internal/models"
)

func searchFixture() *ChallengerSearch {
	sim := backtest.SimConfig{
		FeePerTrade:      decimal.Zero,
		SlippagePerTrade: decimal.Zero,
		CostMultiplier:   1.0,
	}
	universe := evaluation.NewUniverseEvaluator(sim, nil)
	rolling := evaluation.NewRollingValidator(evaluation.RollingConfig{Folds: 4, MinFoldBars: 5}, universe, nil)
	stress := evaluation.NewStressTester(sim, 2.0, nil)
	return NewChallengerSearch(DefaultSearchConfig(), universe, rolling, stress, nil)
}

func searchBars(n int) []models.Bar {
	base := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		c := 100 + 0.1*float64(i)
		bars = append(bars, models.Bar{
			Timestamp: base.Add(time.Duration(i) * 3 * time.Minute),
			Open:      c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000,
		})
	}
	return bars
}

func TestSearchEnumeratesFullGrid(t *testing.T) {
	search := searchFixture()
	leaderboard := search.Search("QQQ", searchBars(40), models.DefaultStrategyParams())

	// 4 displacement x 3 rr x 3 reclaim values
	require.Len(t, leaderboard, 36)

	seen := make(map[int]bool, len(leaderboard))
	for _, cand := range leaderboard {
		assert.Equal(t, "QQQ", cand.Symbol)
		assert.False(t, seen[cand.CandidateID], "duplicate candidate id %d", cand.CandidateID)
		seen[cand.CandidateID] = true
		assert.GreaterOrEqual(t, cand.CandidateID, 1)
		assert.LessOrEqual(t, cand.CandidateID, 36)
	}
}

func TestSearchRankingIsDeterministic(t *testing.T) {
	search := searchFixture()
	bars := searchBars(40)

	first := search.Search("QQQ", bars, models.DefaultStrategyParams())
	second := search.Search("QQQ", bars, models.DefaultStrategyParams())
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Score == cur.Score {
			// ties break on candidate id, so order never depends on
			// sort internals
			assert.Less(t, prev.CandidateID, cur.CandidateID)
		} else {
			assert.Greater(t, prev.Score, cur.Score)
		}
	}
}

func TestSearchCarriesBaseParams(t *testing.T) {
	search := searchFixture()
	base := models.DefaultStrategyParams()
	base.StopBufferATR = 0.42
	base.ATRPeriod = 7

	leaderboard := search.Search("QQQ", searchBars(40), base)
	require.NotEmpty(t, leaderboard)

	grid := DefaultSearchConfig()
	for _, cand := range leaderboard {
		// grid dimensions vary, everything else comes from the base
		assert.Equal(t, 0.42, cand.Params.StopBufferATR)
		assert.Equal(t, 7, cand.Params.ATRPeriod)
		assert.Contains(t, grid.DisplacementGrid, cand.Params.DisplacementATRMult)
		assert.Contains(t, grid.RRGrid, cand.Params.RRTarget)
		assert.Contains(t, grid.ReclaimGrid, cand.Params.ReclaimBufferATR)
	}
}
