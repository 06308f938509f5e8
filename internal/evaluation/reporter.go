package evaluation

import (
	"fmt"
	"strings"

	"github.com/yourusername/gatekeeper/internal/models"
)

// MatrixRow is one symbol's line in the promotion matrix artifact:
// every metric the gate consumed plus the final verdict.
type MatrixRow struct {
	Symbol           string               `json:"symbol"`
	Metrics          models.SymbolMetrics `json:"metrics"`
	Stability        float64              `json:"stability"`
	MeanExpectancy   float64              `json:"mean_expectancy"`
	DegradationRatio float64              `json:"degradation_ratio"`
	Passed           bool                 `json:"passed"`
	Reasons          []models.ReasonCode  `json:"reasons,omitempty"`
}

// PromotionReport is the gate's output artifact, regenerated wholesale
// each run.
type PromotionReport struct {
	Rows      []MatrixRow                `json:"rows"`
	Attrition map[models.ReasonCode]int  `json:"attrition"`
	Scope     models.TradableScope       `json:"scope"`
}

// BuildPromotionReport assembles the promotion matrix and the attrition
// funnel counts from the gate verdicts and upstream results. Verdict
// order is preserved, so rows come out sorted by symbol.
func BuildPromotionReport(verdicts []models.GateVerdict, in GateInputs, scope models.TradableScope) PromotionReport {
	report := PromotionReport{
		Attrition: make(map[models.ReasonCode]int),
		Scope:     scope,
	}

	for _, v := range verdicts {
		row := MatrixRow{
			Symbol:  v.Symbol,
			Passed:  v.Passed,
			Reasons: v.Reasons,
		}
		if uni, ok := in.Universe[v.Symbol]; ok {
			row.Metrics = uni.Metrics
		}
		if roll, ok := in.Rolling[v.Symbol]; ok {
			row.Stability = roll.Stability
			row.MeanExpectancy = roll.MeanExpectancy
		}
		if stress, ok := in.Stress[v.Symbol]; ok {
			row.DegradationRatio = stress.DegradationRatio
		}
		report.Rows = append(report.Rows, row)

		for _, reason := range v.Reasons {
			report.Attrition[reason]++
		}
	}

	return report
}

// RenderConsole formats the report for terminal output.
func (r PromotionReport) RenderConsole() string {
	var b strings.Builder
	b.WriteString("Promotion Matrix\n")
	b.WriteString("================\n")
	b.WriteString(fmt.Sprintf("%-8s %7s %8s %8s %10s %9s %7s %-6s %s\n",
		"symbol", "trades", "win_rate", "pf", "expectancy", "stability", "degrad", "passed", "reasons"))
	for _, row := range r.Rows {
		reasons := make([]string, 0, len(row.Reasons))
		for _, reason := range row.Reasons {
			reasons = append(reasons, string(reason))
		}
		b.WriteString(fmt.Sprintf("%-8s %7d %8.2f %8.2f %10.4f %9.2f %7.2f %-6v %s\n",
			row.Symbol,
			row.Metrics.TradeCount,
			row.Metrics.WinRate,
			row.Metrics.ProfitFactor,
			row.Metrics.Expectancy,
			row.Stability,
			row.DegradationRatio,
			row.Passed,
			strings.Join(reasons, "|"),
		))
	}

	b.WriteString(fmt.Sprintf("\nTradable scope: %s", strings.Join(r.Scope.Symbols, ", ")))
	if r.Scope.IsFallback {
		b.WriteString(" (fallback)")
	}
	b.WriteString("\n")
	return b.String()
}
