package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/learning"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/models"
)

// LeaderboardWriter persists the ranked challenger leaderboard artifact.
type LeaderboardWriter interface {
	Replace(ctx context.Context, symbol string, candidates []models.ChallengerCandidate) error
}

// CycleResult is the output of one complete research cycle.
type CycleResult struct {
	Run     RunResult
	Refresh learning.Outcome
}

// CycleService runs the daily research cycle: the deploy-gating
// pipeline first, then the champion/challenger refresh over the same
// bar series the gate just evaluated.
type CycleService struct {
	pipeline       *Pipeline
	search         *learning.ChallengerSearch
	engine         *learning.Engine
	store          learning.RefreshStore
	leaderboard    LeaderboardWriter
	baseParams     models.StrategyParams
	fallbackSymbol string
	logger         *logrus.Logger
}

// NewCycleService creates a cycle service. The leaderboard writer may
// be nil, in which case the leaderboard artifact is not persisted.
func NewCycleService(
	pipeline *Pipeline,
	search *learning.ChallengerSearch,
	engine *learning.Engine,
	store learning.RefreshStore,
	leaderboard LeaderboardWriter,
	baseParams models.StrategyParams,
	fallbackSymbol string,
	log *logrus.Logger,
) *CycleService {
	if log == nil {
		log = logrus.New()
	}
	return &CycleService{
		pipeline:       pipeline,
		search:         search,
		engine:         engine,
		store:          store,
		leaderboard:    leaderboard,
		baseParams:     baseParams,
		fallbackSymbol: fallbackSymbol,
		logger:         log,
	}
}

// Pipeline returns the underlying deploy-gating pipeline.
func (s *CycleService) Pipeline() *Pipeline {
	return s.pipeline
}

// RunCycle executes the pipeline and, when the run survives scope
// validation, the refresh. A scope violation aborts the cycle before
// the refresh engine sees anything.
func (s *CycleService) RunCycle(ctx context.Context) (CycleResult, error) {
	run, err := s.pipeline.Run(ctx)
	if err != nil {
		return CycleResult{}, err
	}

	symbol := s.championSymbol(ctx)
	bars := run.Series[symbol]

	searchStart := time.Now()
	var leaderboard []models.ChallengerCandidate
	if len(bars) == 0 {
		s.logger.WithField("symbol", symbol).Warn("No bar series for champion symbol, skipping challenger search")
	} else {
		leaderboard = s.search.Search(symbol, bars, s.baseParams)
		metrics.ChallengerCandidatesTotal.Add(float64(len(leaderboard)))
	}
	metrics.RecordStageDuration("search", time.Since(searchStart).Seconds())

	if s.leaderboard != nil && len(leaderboard) > 0 {
		if err := s.leaderboard.Replace(ctx, symbol, leaderboard); err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to persist challenger leaderboard")
		}
	}

	outcome, err := s.engine.Run(ctx, func(context.Context) ([]models.ChallengerCandidate, error) {
		return leaderboard, nil
	})
	if err != nil {
		return CycleResult{}, fmt.Errorf("refresh failed: %w", err)
	}

	metrics.RecordRefreshDecision(string(outcome.Decision))
	metrics.UpdateChampion(outcome.Champion.Version, outcome.Champion.Metrics.Expectancy)

	s.logger.WithFields(logrus.Fields{
		"state":    string(outcome.State),
		"decision": string(outcome.Decision),
		"champion": outcome.Champion.Symbol,
		"version":  outcome.Champion.Version,
	}).Info("Research cycle complete")

	return CycleResult{Run: run, Refresh: outcome}, nil
}

// championSymbol resolves which symbol's history the challenger search
// targets: the committed champion if one exists, otherwise the
// mandated fallback symbol that bootstrap will seed.
func (s *CycleService) championSymbol(ctx context.Context) string {
	current, err := s.store.Current(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.WithError(err).Warn("Failed to read current champion, using fallback symbol")
		}
		return s.fallbackSymbol
	}
	return current.Symbol
}
