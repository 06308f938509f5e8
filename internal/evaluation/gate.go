package evaluation

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/models"
)

// GateConfig holds the promotion gate acceptance thresholds. Threshold
// values are configuration, not part of the gate's contract.
type GateConfig struct {
	MinTradeCount   int
	MinProfitFactor float64
	MinStability    float64
	// MaxStressDegradation is the fraction of base expectancy a symbol
	// may lose under cost stress. A symbol passes when its degradation
	// ratio stays at or above 1-MaxStressDegradation.
	MaxStressDegradation float64
	// FallbackSymbol is the policy-mandated symbol emitted when no
	// candidate passes every check.
	FallbackSymbol string
}

// GateInputs carries the upstream evaluator outputs, keyed by symbol.
// A symbol absent from any map is treated as a missing metric, which
// degrades to a fail verdict rather than an error.
type GateInputs struct {
	Universe map[string]UniverseResult
	Rolling  map[string]RollingResult
	Stress   map[string]StressResult
}

// PromotionGate fuses the universe, rolling, and stress evaluations
// into per-symbol pass/fail verdicts and owns construction of the
// run's TradableScope.
type PromotionGate struct {
	cfg    GateConfig
	logger *logrus.Logger
}

// NewPromotionGate creates a promotion gate.
func NewPromotionGate(cfg GateConfig, logger *logrus.Logger) *PromotionGate {
	if logger == nil {
		logger = logrus.New()
	}
	return &PromotionGate{cfg: cfg, logger: logger}
}

// Evaluate runs the ordered check list for every candidate symbol. All
// failed checks are recorded, not just the first, so the attrition
// funnel report stays complete. The returned scope is never empty: if
// every candidate fails, it contains exactly the fallback symbol with
// IsFallback set, regardless of the fallback symbol's own verdict.
func (g *PromotionGate) Evaluate(symbols []string, in GateInputs) ([]models.GateVerdict, models.TradableScope) {
	ordered := append([]string(nil), symbols...)
	sort.Strings(ordered)

	verdicts := make([]models.GateVerdict, 0, len(ordered))
	var passed []string

	for _, symbol := range ordered {
		verdict := g.evaluateSymbol(symbol, in)
		verdicts = append(verdicts, verdict)
		if verdict.Passed {
			passed = append(passed, symbol)
		}
	}

	if len(passed) == 0 {
		g.logger.WithField("fallback", g.cfg.FallbackSymbol).Warn("No symbols passed gates, falling back to mandated symbol")
		return verdicts, models.TradableScope{
			Symbols:    []string{g.cfg.FallbackSymbol},
			IsFallback: true,
		}
	}

	sort.Strings(passed)
	return verdicts, models.TradableScope{Symbols: passed}
}

func (g *PromotionGate) evaluateSymbol(symbol string, in GateInputs) models.GateVerdict {
	verdict := models.GateVerdict{Symbol: symbol}

	uni, hasUni := in.Universe[symbol]
	roll, hasRoll := in.Rolling[symbol]
	stress, hasStress := in.Stress[symbol]

	missing := !hasUni || !hasRoll || !hasStress ||
		badNumber(uni.Metrics.ProfitFactor) ||
		badNumber(uni.Metrics.Expectancy) ||
		badNumber(roll.Stability) ||
		badNumber(stress.DegradationRatio)
	if missing {
		verdict.Reasons = append(verdict.Reasons, models.ReasonMissingMetric)
	}

	if roll.InsufficientData {
		verdict.Reasons = append(verdict.Reasons, models.ReasonInsufficientData)
	}
	if uni.Metrics.TradeCount < g.cfg.MinTradeCount {
		verdict.Reasons = append(verdict.Reasons, models.ReasonMinTrades)
	}
	if !(uni.Metrics.ProfitFactor >= g.cfg.MinProfitFactor) {
		verdict.Reasons = append(verdict.Reasons, models.ReasonProfitFactor)
	}
	if !(roll.Stability >= g.cfg.MinStability) {
		verdict.Reasons = append(verdict.Reasons, models.ReasonStability)
	}
	if !(stress.DegradationRatio >= 1-g.cfg.MaxStressDegradation) {
		verdict.Reasons = append(verdict.Reasons, models.ReasonStressDegradation)
	}

	verdict.Passed = len(verdict.Reasons) == 0

	g.logger.WithFields(logrus.Fields{
		"symbol":  symbol,
		"passed":  verdict.Passed,
		"reasons": verdict.Reasons,
	}).Info("Gate verdict")

	return verdict
}

func badNumber(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
