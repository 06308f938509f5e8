// Package service wires the evaluation stages into the deploy-gating
// pipeline and the daily research cycle.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/evaluation"
	"github.com/yourusername/gatekeeper/internal/logger"
	"github.com/yourusername/gatekeeper/internal/marketdata"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/strategy"
)

// PipelineConfig configures one pipeline run.
type PipelineConfig struct {
	Symbols          []string
	Params           models.StrategyParams
	AllowedDeploySet []string
	LookbackDays     int
	// Workers bounds the per-symbol evaluation fan-out.
	Workers int
}

// RunResult is the output of one deploy-gating pipeline run.
type RunResult struct {
	Verdicts     []models.GateVerdict
	Scope        models.TradableScope
	ScopeMessage string
	Report       evaluation.PromotionReport
	// Series holds the cleaned bar series used by the run, keyed by
	// symbol, so downstream stages evaluate the exact same data.
	Series map[string][]models.Bar
}

// Pipeline runs the deploy-gating stages in order: series access,
// universe evaluation, rolling validation, cost stress, promotion
// gate, then the deploy-scope invariant check. A scope violation
// aborts the run before any downstream consumer sees the scope.
type Pipeline struct {
	cfg      PipelineConfig
	accessor *marketdata.SeriesAccessor
	universe *evaluation.UniverseEvaluator
	rolling  *evaluation.RollingValidator
	stress   *evaluation.StressTester
	gate     *evaluation.PromotionGate
	logger   *logrus.Logger
	audit    *logger.AuditLogger
}

// NewPipeline creates a pipeline.
func NewPipeline(
	cfg PipelineConfig,
	accessor *marketdata.SeriesAccessor,
	universe *evaluation.UniverseEvaluator,
	rolling *evaluation.RollingValidator,
	stress *evaluation.StressTester,
	gate *evaluation.PromotionGate,
	log *logrus.Logger,
) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	return &Pipeline{
		cfg:      cfg,
		accessor: accessor,
		universe: universe,
		rolling:  rolling,
		stress:   stress,
		gate:     gate,
		logger:   log,
		audit:    logger.NewAuditLogger(log),
	}
}

type symbolOutcome struct {
	bars   []models.Bar
	uni    evaluation.UniverseResult
	roll   evaluation.RollingResult
	stress evaluation.StressResult
}

// Run executes one complete deploy-gating run. Symbols are evaluated
// concurrently but combined deterministically: results are keyed by
// symbol and the gate walks candidates in sorted order, so identical
// inputs always produce identical verdicts and scope.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	metrics.PipelineRunsTotal.Inc()

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -p.cfg.LookbackDays)

	outcomes, err := p.evaluateSymbols(ctx, from, to)
	if err != nil {
		metrics.PipelineFailuresTotal.Inc()
		return RunResult{}, err
	}

	in := evaluation.GateInputs{
		Universe: make(map[string]evaluation.UniverseResult, len(outcomes)),
		Rolling:  make(map[string]evaluation.RollingResult, len(outcomes)),
		Stress:   make(map[string]evaluation.StressResult, len(outcomes)),
	}
	series := make(map[string][]models.Bar, len(outcomes))
	for symbol, out := range outcomes {
		in.Universe[symbol] = out.uni
		in.Rolling[symbol] = out.roll
		in.Stress[symbol] = out.stress
		series[symbol] = out.bars
		metrics.SymbolExpectancy.WithLabelValues(symbol).Set(out.uni.Metrics.Expectancy)
	}

	gateStart := time.Now()
	verdicts, scope := p.gate.Evaluate(p.cfg.Symbols, in)
	metrics.RecordStageDuration("gate", time.Since(gateStart).Seconds())

	for _, v := range verdicts {
		reasons := make([]string, 0, len(v.Reasons))
		for _, r := range v.Reasons {
			reasons = append(reasons, string(r))
		}
		metrics.RecordGateVerdict(v.Passed, reasons)
		p.audit.LogGateVerdict(v)
	}

	if scope.IsFallback {
		metrics.FallbackActivationsTotal.Inc()
		p.audit.LogFallbackActivated(scope.Symbols[0], len(p.cfg.Symbols))
	}
	metrics.TradableSymbols.Set(float64(len(scope.Symbols)))

	message, err := evaluation.ValidateDeployScope(scope, p.cfg.AllowedDeploySet)
	if err != nil {
		var violation *models.ScopeViolationError
		if errors.As(err, &violation) {
			metrics.ScopeViolationsTotal.Inc()
			p.audit.LogScopeViolation(violation.Got, violation.Allowed)
		}
		metrics.PipelineFailuresTotal.Inc()
		return RunResult{}, err
	}

	report := evaluation.BuildPromotionReport(verdicts, in, scope)

	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	p.logger.WithFields(logrus.Fields{
		"symbols":  len(p.cfg.Symbols),
		"scope":    scope.Symbols,
		"fallback": scope.IsFallback,
		"duration": time.Since(start).String(),
	}).Info("Pipeline run complete")

	return RunResult{
		Verdicts:     verdicts,
		Scope:        scope,
		ScopeMessage: message,
		Report:       report,
		Series:       series,
	}, nil
}

// evaluateSymbols fans the candidate universe out over a bounded worker
// pool. Each worker owns one symbol end to end: fetch, universe,
// rolling, stress. Workers share no mutable state beyond the results
// map, so run order cannot influence any symbol's numbers.
func (p *Pipeline) evaluateSymbols(ctx context.Context, from, to time.Time) (map[string]symbolOutcome, error) {
	outcomes := make(map[string]symbolOutcome, len(p.cfg.Symbols))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, p.cfg.Workers)
		firstErr error
	)

	for _, symbol := range p.cfg.Symbols {
		symbol := symbol
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := p.evaluateSymbol(ctx, symbol, from, to)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			outcomes[symbol] = out
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return outcomes, nil
}

func (p *Pipeline) evaluateSymbol(ctx context.Context, symbol string, from, to time.Time) (symbolOutcome, error) {
	fetchStart := time.Now()
	bars, err := p.accessor.Series(ctx, symbol, from, to)
	if err != nil {
		return symbolOutcome{}, err
	}
	metrics.RecordStageDuration("series", time.Since(fetchStart).Seconds())

	rs := strategy.NewDisplacementReclaim(p.cfg.Params)

	evalStart := time.Now()
	uni := p.universe.Evaluate(symbol, bars, rs)
	roll := p.rolling.Validate(symbol, bars, rs)
	stressRes := p.stress.Test(symbol, bars, rs, uni.Metrics)
	metrics.RecordStageDuration("evaluate", time.Since(evalStart).Seconds())

	return symbolOutcome{
		bars:   bars,
		uni:    uni,
		roll:   roll,
		stress: stressRes,
	}, nil
}
