// Package learning implements the challenger search and the
// champion/challenger refresh engine.
package learning

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/evaluation"
	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/strategy"
)

// ScoreWeights are the components of the challenger composite score.
// The formula is configuration; the contract is only that it yields a
// total order with a deterministic tie-break.
type ScoreWeights struct {
	Expectancy         float64
	StressExpectancy   float64
	MeanFoldExpectancy float64
	AvgR               float64
	Stability          float64
}

// DefaultScoreWeights returns the standard composite weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Expectancy:         0.40,
		StressExpectancy:   0.25,
		MeanFoldExpectancy: 0.20,
		AvgR:               0.10,
		Stability:          0.05,
	}
}

// SearchConfig configures the challenger parameter grid.
type SearchConfig struct {
	DisplacementGrid []float64
	RRGrid           []float64
	ReclaimGrid      []float64
	Weights          ScoreWeights
}

// DefaultSearchConfig returns the standard search grid.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DisplacementGrid: []float64{1.0, 1.1, 1.2, 1.3},
		RRGrid:           []float64{2.0, 2.5, 3.0},
		ReclaimGrid:      []float64{0.02, 0.03, 0.04},
		Weights:          DefaultScoreWeights(),
	}
}

// ChallengerSearch evaluates a parameter grid against one symbol's
// history and produces the ranked leaderboard. Candidates are scored
// with the same evaluators the universe pipeline uses.
type ChallengerSearch struct {
	cfg      SearchConfig
	universe *evaluation.UniverseEvaluator
	rolling  *evaluation.RollingValidator
	stress   *evaluation.StressTester
	logger   *logrus.Logger
}

// NewChallengerSearch creates a challenger search.
func NewChallengerSearch(
	cfg SearchConfig,
	universe *evaluation.UniverseEvaluator,
	rolling *evaluation.RollingValidator,
	stress *evaluation.StressTester,
	logger *logrus.Logger,
) *ChallengerSearch {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChallengerSearch{
		cfg:      cfg,
		universe: universe,
		rolling:  rolling,
		stress:   stress,
		logger:   logger,
	}
}

// Search runs the grid over the series and returns candidates ranked
// by score, descending. The leaderboard order is reproducible: the
// grid enumeration is fixed and ties break on symbol then candidate id.
func (s *ChallengerSearch) Search(symbol string, bars []models.Bar, base models.StrategyParams) []models.ChallengerCandidate {
	var candidates []models.ChallengerCandidate
	cid := 1
	for _, disp := range s.cfg.DisplacementGrid {
		for _, rr := range s.cfg.RRGrid {
			for _, reclaim := range s.cfg.ReclaimGrid {
				params := base
				params.DisplacementATRMult = disp
				params.RRTarget = rr
				params.ReclaimBufferATR = reclaim

				candidates = append(candidates, s.evaluateCandidate(cid, symbol, bars, params))
				cid++
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.CandidateID < b.CandidateID
	})

	s.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"candidates": len(candidates),
	}).Info("Challenger search complete")

	return candidates
}

func (s *ChallengerSearch) evaluateCandidate(cid int, symbol string, bars []models.Bar, params models.StrategyParams) models.ChallengerCandidate {
	rs := strategy.NewDisplacementReclaim(params)

	uni := s.universe.Evaluate(symbol, bars, rs)
	roll := s.rolling.Validate(symbol, bars, rs)
	stress := s.stress.Test(symbol, bars, rs, uni.Metrics)

	cand := models.ChallengerCandidate{
		CandidateID:        cid,
		Symbol:             symbol,
		Params:             params,
		Metrics:            uni.Metrics,
		StressExpectancy:   stress.Metrics.Expectancy,
		MeanFoldExpectancy: roll.MeanExpectancy,
		MinFoldExpectancy:  roll.MinExpectancy,
		Stability:          roll.Stability,
	}
	cand.Score = s.score(cand)
	return cand
}

func (s *ChallengerSearch) score(c models.ChallengerCandidate) float64 {
	w := s.cfg.Weights
	return w.Expectancy*c.Metrics.Expectancy +
		w.StressExpectancy*c.StressExpectancy +
		w.MeanFoldExpectancy*c.MeanFoldExpectancy +
		w.AvgR*c.Metrics.AvgR +
		w.Stability*c.Stability
}
