package learning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/models"
)

// memoryStore is an in-memory RefreshStore with the same single-writer
// contract as the PostgreSQL implementation.
type memoryStore struct {
	mu       sync.Mutex
	champion models.Champion
	seeded   bool
	audit    []models.AuditEntry
	seed     string
}

func newMemoryStore(seedSymbol string) *memoryStore {
	return &memoryStore{seed: seedSymbol}
}

func (s *memoryStore) Current(_ context.Context) (models.Champion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		return models.Champion{}, models.ErrNotFound
	}
	return s.champion, nil
}

func (s *memoryStore) RunDecision(_ context.Context, decide DecideFunc) (models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		s.champion = BootstrapChampion(s.seed)
		s.seeded = true
	}
	next, entry, err := decide(s.champion)
	if err != nil {
		return models.AuditEntry{}, err
	}
	if entry.Decision == models.DecisionReplace {
		s.champion = next
	}
	s.audit = append(s.audit, entry)
	return entry, nil
}

func refreshConfig() RefreshConfig {
	return RefreshConfig{
		MinImprovement:   0.01,
		MinTradeCount:    40,
		MinStability:     0.75,
		AllowedDeploySet: []string{"QQQ"},
	}
}

func candidate(id int, symbol string, expectancy float64) models.ChallengerCandidate {
	return models.ChallengerCandidate{
		CandidateID: id,
		Symbol:      symbol,
		Params:      models.DefaultStrategyParams(),
		Metrics: models.SymbolMetrics{
			TradeCount: 60,
			Expectancy: expectancy,
		},
		Stability: 0.8,
		Score:     expectancy,
	}
}

func fixedSearch(leaderboard ...models.ChallengerCandidate) SearchFunc {
	return func(context.Context) ([]models.ChallengerCandidate, error) {
		return leaderboard, nil
	}
}

func TestEngineReplacesWhenChallengerBeatsMargin(t *testing.T) {
	store := newMemoryStore("QQQ")
	engine := NewEngine(store, refreshConfig(), nil, nil)

	outcome, err := engine.Run(context.Background(), fixedSearch(candidate(5, "QQQ", 0.08)))
	require.NoError(t, err)

	assert.Equal(t, StateRefreshed, outcome.State)
	assert.Equal(t, models.DecisionReplace, outcome.Decision)
	assert.Equal(t, 5, outcome.Champion.CandidateID)
	assert.EqualValues(t, 2, outcome.Champion.Version) // bootstrap was v1
	assert.Contains(t, outcome.Rationale, "beats champion")

	require.Len(t, store.audit, 1)
	assert.EqualValues(t, 1, store.audit[0].ChampionBefore.Version)
	assert.EqualValues(t, 2, store.audit[0].ChampionAfter.Version)
}

func TestEngineRetainsWithinMargin(t *testing.T) {
	store := newMemoryStore("QQQ")
	store.seeded = true
	store.champion = models.Champion{
		Symbol:  "QQQ",
		Metrics: models.SymbolMetrics{Expectancy: 0.075},
		Version: 3,
	}
	engine := NewEngine(store, refreshConfig(), nil, nil)

	// 0.08 <= 0.075 + 0.01 so the challenger is not strictly ahead.
	outcome, err := engine.Run(context.Background(), fixedSearch(candidate(5, "QQQ", 0.08)))
	require.NoError(t, err)

	assert.Equal(t, StateRetained, outcome.State)
	assert.Equal(t, models.DecisionRetain, outcome.Decision)
	assert.EqualValues(t, 3, outcome.Champion.Version)
	assert.Contains(t, outcome.Rationale, "within margin")
	require.Len(t, store.audit, 1)
}

func TestEngineIdempotentAfterReplace(t *testing.T) {
	store := newMemoryStore("QQQ")
	engine := NewEngine(store, refreshConfig(), nil, nil)
	search := fixedSearch(candidate(5, "QQQ", 0.08))

	first, err := engine.Run(context.Background(), search)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionReplace, first.Decision)

	// Identical inputs a second time: the promoted champion now owns
	// that expectancy, so the rule resolves to retain.
	second, err := engine.Run(context.Background(), search)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRetain, second.Decision)
	assert.Equal(t, first.Champion.Version, second.Champion.Version)

	// One audit entry per run, replace or not.
	assert.Len(t, store.audit, 2)
}

func TestEngineGuardrails(t *testing.T) {
	tests := []struct {
		name string
		cand models.ChallengerCandidate
	}{
		{
			name: "too few trades",
			cand: func() models.ChallengerCandidate {
				c := candidate(1, "QQQ", 0.10)
				c.Metrics.TradeCount = 10
				return c
			}(),
		},
		{
			name: "unstable",
			cand: func() models.ChallengerCandidate {
				c := candidate(1, "QQQ", 0.10)
				c.Stability = 0.5
				return c
			}(),
		},
		{
			name: "outside allowed deploy set",
			cand: candidate(1, "SPY", 0.10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore("QQQ")
			engine := NewEngine(store, refreshConfig(), nil, nil)

			outcome, err := engine.Run(context.Background(), fixedSearch(tt.cand))
			require.NoError(t, err)
			assert.Equal(t, models.DecisionRetain, outcome.Decision)
			assert.Equal(t, "no challenger cleared the guardrails", outcome.Rationale)
		})
	}
}

func TestEngineSkipsIneligibleThenReplaces(t *testing.T) {
	store := newMemoryStore("QQQ")
	engine := NewEngine(store, refreshConfig(), nil, nil)

	blocked := candidate(1, "SPY", 0.20) // best score but undeployable
	eligible := candidate(2, "QQQ", 0.08)

	outcome, err := engine.Run(context.Background(), fixedSearch(blocked, eligible))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionReplace, outcome.Decision)
	assert.Equal(t, "QQQ", outcome.Champion.Symbol)
	assert.Equal(t, 2, outcome.Champion.CandidateID)
}

func TestEngineEmptyLeaderboard(t *testing.T) {
	store := newMemoryStore("QQQ")
	engine := NewEngine(store, refreshConfig(), nil, nil)

	outcome, err := engine.Run(context.Background(), fixedSearch())
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRetain, outcome.Decision)
	assert.Equal(t, "empty challenger leaderboard", outcome.Rationale)
	assert.Len(t, store.audit, 1)
}

func TestEngineDecayAnnotation(t *testing.T) {
	store := newMemoryStore("QQQ")
	store.seeded = true
	store.champion = models.Champion{
		Symbol:  "QQQ",
		Metrics: models.SymbolMetrics{Expectancy: -0.5},
		Version: 2,
	}
	decay := NewDecayCheck(DecayConfig{ExpectancyFloor: -0.20})
	engine := NewEngine(store, refreshConfig(), decay, nil)

	outcome, err := engine.Run(context.Background(), fixedSearch())
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRetain, outcome.Decision)
	assert.Contains(t, outcome.Rationale, "empty challenger leaderboard")
	assert.Contains(t, outcome.Rationale, "below decay floor")
}

func TestEngineSearchFailure(t *testing.T) {
	store := newMemoryStore("QQQ")
	engine := NewEngine(store, refreshConfig(), nil, nil)

	searchErr := errors.New("provider unavailable")
	_, err := engine.Run(context.Background(), func(context.Context) ([]models.ChallengerCandidate, error) {
		return nil, searchErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, searchErr)
	assert.Equal(t, StateIdle, engine.State())
	assert.Empty(t, store.audit) // a failed search never reaches the store
}

func TestBootstrapChampion(t *testing.T) {
	c := BootstrapChampion("QQQ")
	assert.Equal(t, "QQQ", c.Symbol)
	assert.EqualValues(t, 1, c.Version)
	assert.Equal(t, models.NeutralMetrics(), c.Metrics)
	assert.Equal(t, models.DefaultStrategyParams(), c.Params)
}
