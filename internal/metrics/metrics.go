// Package metrics provides the centralized Prometheus metrics registry for the pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline runs started",
	})
	PipelineFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "pipeline_failures_total",
		Help:      "Total number of pipeline runs that aborted with an error",
	})
	GateVerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "gate_verdicts_total",
		Help:      "Total gate verdicts by outcome",
	}, []string{"outcome"})
	GateFailReasonsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "gate_fail_reasons_total",
		Help:      "Total gate check failures by reason code",
	}, []string{"reason"})
	FallbackActivationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "fallback_activations_total",
		Help:      "Total number of runs where the fallback tradable scope was activated",
	})
	ScopeViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "scope_violations_total",
		Help:      "Total number of deploy scope violations detected",
	})
	RefreshDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "refresh_decisions_total",
		Help:      "Total champion refresh decisions by outcome",
	}, []string{"decision"})
	ChallengerCandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Name:      "challenger_candidates_total",
		Help:      "Total challenger candidates evaluated",
	})
)

// Gauge metrics
var (
	TradableSymbols = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeeper",
		Name:      "tradable_symbols",
		Help:      "Number of symbols in the current tradable scope",
	})
	ChampionVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeeper",
		Name:      "champion_version",
		Help:      "Version of the current champion record",
	})
	ChampionExpectancy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gatekeeper",
		Name:      "champion_expectancy",
		Help:      "Expectancy of the current champion",
	})
	SymbolExpectancy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gatekeeper",
		Name:      "symbol_expectancy",
		Help:      "Latest full-series expectancy per symbol",
	}, []string{"symbol"})
)

// Histogram metrics
var (
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gatekeeper",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gatekeeper",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of complete pipeline runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(PipelineFailuresTotal)
		registry.MustRegister(GateVerdictsTotal)
		registry.MustRegister(GateFailReasonsTotal)
		registry.MustRegister(FallbackActivationsTotal)
		registry.MustRegister(ScopeViolationsTotal)
		registry.MustRegister(RefreshDecisionsTotal)
		registry.MustRegister(ChallengerCandidatesTotal)

		registry.MustRegister(TradableSymbols)
		registry.MustRegister(ChampionVersion)
		registry.MustRegister(ChampionExpectancy)
		registry.MustRegister(SymbolExpectancy)

		registry.MustRegister(StageDuration)
		registry.MustRegister(PipelineDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordGateVerdict records one symbol's gate outcome and its fail reasons.
func RecordGateVerdict(passed bool, reasons []string) {
	outcome := "pass"
	if !passed {
		outcome = "fail"
	}
	GateVerdictsTotal.WithLabelValues(outcome).Inc()
	for _, reason := range reasons {
		GateFailReasonsTotal.WithLabelValues(reason).Inc()
	}
}

// RecordRefreshDecision records a champion refresh decision.
func RecordRefreshDecision(decision string) {
	RefreshDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordStageDuration records the duration of one pipeline stage.
func RecordStageDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// UpdateChampion updates the champion gauges.
func UpdateChampion(version int64, expectancy float64) {
	ChampionVersion.Set(float64(version))
	ChampionExpectancy.Set(expectancy)
}
