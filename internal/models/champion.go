package models

import "time"

// Champion is the currently deployed strategy configuration for the
// mandated symbol. Exactly one champion exists at any time; it is
// mutated only by the refresh engine, as one atomic record.
type Champion struct {
	Symbol      string         `json:"symbol"`
	CandidateID int            `json:"candidate_id"`
	Params      StrategyParams `json:"params"`
	Metrics     SymbolMetrics  `json:"metrics"`
	Stability   float64        `json:"stability"`
	Score       float64        `json:"score"`
	Version     int64          `json:"version"`
	LastUpdated time.Time      `json:"last_updated"`
}

// ChallengerCandidate is one scored configuration produced by the
// challenger search. Candidates are ephemeral: they live only in the
// regenerated leaderboard artifact.
type ChallengerCandidate struct {
	CandidateID        int            `json:"candidate_id"`
	Symbol             string         `json:"symbol"`
	Params             StrategyParams `json:"params"`
	Metrics            SymbolMetrics  `json:"metrics"`
	StressExpectancy   float64        `json:"stress_expectancy"`
	MeanFoldExpectancy float64        `json:"mean_fold_expectancy"`
	MinFoldExpectancy  float64        `json:"min_fold_expectancy"`
	Stability          float64        `json:"stability"`
	Score              float64        `json:"score"`
}
