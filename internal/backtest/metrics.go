package backtest

import (
	"math"

	"github.com/yourusername/gatekeeper/internal/models"
)

// ComputeMetrics aggregates a trade log into SymbolMetrics. An empty
// log yields the neutral defaults; a flat or untradeable symbol is a
// normal outcome, never an error.
func ComputeMetrics(trades []models.Trade, totalBars int) models.SymbolMetrics {
	if len(trades) == 0 {
		return models.NeutralMetrics()
	}

	m := models.SymbolMetrics{TradeCount: len(trades)}

	wins := 0
	netPnL := 0.0
	sumR := 0.0
	barsHeld := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
		netPnL += t.PnL
		sumR += t.RMultiple
		barsHeld += t.BarsHeld
	}

	m.WinRate = float64(wins) / float64(len(trades))
	m.Expectancy = netPnL / float64(len(trades))
	m.AvgR = sumR / float64(len(trades))
	m.ProfitFactor = profitFactor(trades)
	m.MaxDrawdown = maxDrawdown(trades)
	if totalBars > 0 {
		exposure := float64(barsHeld) / float64(totalBars)
		if exposure > 1 {
			exposure = 1
		}
		m.ExposureTime = exposure
	}
	return m
}

func profitFactor(trades []models.Trade) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, t := range trades {
		if t.PnL > 0 {
			grossProfit += t.PnL
		} else {
			grossLoss += math.Abs(t.PnL)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

// maxDrawdown is the deepest peak-to-trough fall of the cumulative PnL
// curve, in the same absolute units as trade PnL.
func maxDrawdown(trades []models.Trade) float64 {
	maxDD := 0.0
	peak := 0.0
	equity := 0.0
	for _, t := range trades {
		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
