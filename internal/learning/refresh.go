package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/logger"
	"github.com/yourusername/gatekeeper/internal/models"
)

// State is the refresh engine's position in its run lifecycle.
type State string

const (
	StateIdle      State = "Idle"
	StateSearching State = "Searching"
	StateComparing State = "Comparing"
	StateRefreshed State = "Refreshed"
	StateRetained  State = "Retained"
)

// RefreshConfig holds the champion replacement guardrails.
type RefreshConfig struct {
	// MinImprovement is the margin by which a challenger's expectancy
	// must beat the champion's before a replace is allowed; it guards
	// against churn from noise-level differences.
	MinImprovement float64
	// MinTradeCount and MinStability are the candidate guardrails: a
	// challenger below either never replaces, regardless of expectancy.
	MinTradeCount int
	MinStability  float64
	// AllowedDeploySet constrains which symbols may become the
	// deploy-bound champion.
	AllowedDeploySet []string
}

// SearchFunc produces the run's challenger leaderboard, ranked.
type SearchFunc func(ctx context.Context) ([]models.ChallengerCandidate, error)

// Outcome is the result of one refresh run.
type Outcome struct {
	State     State
	Decision  models.Decision
	Champion  models.Champion
	Entry     models.AuditEntry
	Rationale string
}

// Engine is the champion/challenger refresh state machine. It is the
// only component permitted to mutate the persisted champion or append
// audit entries, and it does both through the store's atomic unit.
type Engine struct {
	store  RefreshStore
	cfg    RefreshConfig
	decay  *DecayCheck
	logger *logrus.Logger
	audit  *logger.AuditLogger
	state  State
	now    func() time.Time
}

// NewEngine creates a refresh engine.
func NewEngine(store RefreshStore, cfg RefreshConfig, decay *DecayCheck, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		decay:  decay,
		logger: log,
		audit:  logger.NewAuditLogger(log),
		state:  StateIdle,
		now:    time.Now,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// Run executes one full refresh cycle: search, compare, then either
// refresh or retain. Exactly one audit entry is appended per run. The
// decision is idempotent: re-running with identical inputs after a
// replace finds the challenger no longer strictly ahead by the margin
// and resolves to Retained.
func (e *Engine) Run(ctx context.Context, search SearchFunc) (Outcome, error) {
	e.state = StateSearching
	leaderboard, err := search(ctx)
	if err != nil {
		e.state = StateIdle
		return Outcome{}, fmt.Errorf("challenger search failed: %w", err)
	}

	e.state = StateComparing
	var outcome Outcome
	entry, err := e.store.RunDecision(ctx, func(current models.Champion) (models.Champion, models.AuditEntry, error) {
		next, entry := e.compare(current, leaderboard)
		outcome = Outcome{
			Decision:  entry.Decision,
			Champion:  next,
			Rationale: entry.Rationale,
		}
		return next, entry, nil
	})
	if err != nil {
		e.state = StateIdle
		return Outcome{}, fmt.Errorf("refresh decision failed: %w", err)
	}

	outcome.Entry = entry
	if entry.Decision == models.DecisionReplace {
		e.state = StateRefreshed
	} else {
		e.state = StateRetained
	}
	outcome.State = e.state

	e.audit.LogRefreshDecision(entry)
	return outcome, nil
}

// compare applies the replacement rule against the committed champion.
// The challenger must strictly dominate on expectancy by at least the
// configured margin, satisfy the candidate guardrails, and sit inside
// the allowed deploy set.
func (e *Engine) compare(current models.Champion, leaderboard []models.ChallengerCandidate) (models.Champion, models.AuditEntry) {
	entry := models.AuditEntry{
		ID:             uuid.New(),
		RunAt:          e.now().UTC(),
		Decision:       models.DecisionRetain,
		ChampionBefore: current,
		ChampionAfter:  current,
	}

	challenger, reason := e.pickChallenger(current, leaderboard)
	if challenger == nil {
		entry.Rationale = reason
		if e.decay != nil {
			if decayed, note := e.decay.Check(current.Metrics); decayed {
				entry.Rationale += "; " + note
			}
		}
		return current, entry
	}

	next := models.Champion{
		Symbol:      challenger.Symbol,
		CandidateID: challenger.CandidateID,
		Params:      challenger.Params,
		Metrics:     challenger.Metrics,
		Stability:   challenger.Stability,
		Score:       challenger.Score,
		Version:     current.Version + 1,
		LastUpdated: e.now().UTC(),
	}
	entry.Decision = models.DecisionReplace
	entry.ChampionAfter = next
	entry.Rationale = fmt.Sprintf(
		"challenger %d (%s) expectancy %.4f beats champion %.4f by more than margin %.4f",
		challenger.CandidateID, challenger.Symbol,
		challenger.Metrics.Expectancy, current.Metrics.Expectancy, e.cfg.MinImprovement,
	)
	return next, entry
}

// pickChallenger walks the ranked leaderboard and returns the first
// candidate clearing every guardrail, or nil with the retain reason.
func (e *Engine) pickChallenger(current models.Champion, leaderboard []models.ChallengerCandidate) (*models.ChallengerCandidate, string) {
	if len(leaderboard) == 0 {
		return nil, "empty challenger leaderboard"
	}

	allowed := make(map[string]struct{}, len(e.cfg.AllowedDeploySet))
	for _, s := range e.cfg.AllowedDeploySet {
		allowed[s] = struct{}{}
	}

	for i := range leaderboard {
		cand := &leaderboard[i]
		if len(allowed) > 0 {
			if _, ok := allowed[cand.Symbol]; !ok {
				continue
			}
		}
		if cand.Metrics.TradeCount < e.cfg.MinTradeCount {
			continue
		}
		if cand.Stability < e.cfg.MinStability {
			continue
		}
		if cand.Metrics.Expectancy <= current.Metrics.Expectancy+e.cfg.MinImprovement {
			return nil, fmt.Sprintf(
				"top eligible challenger expectancy %.4f within margin %.4f of champion %.4f",
				cand.Metrics.Expectancy, e.cfg.MinImprovement, current.Metrics.Expectancy,
			)
		}
		return cand, ""
	}

	return nil, "no challenger cleared the guardrails"
}
