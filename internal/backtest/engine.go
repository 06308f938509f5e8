package backtest

import (
	"math"

	"github.com/yourusername/gatekeeper/internal/models"
	"github.com/yourusername/gatekeeper/internal/strategy"
)

// Simulate replays a bar series against a rule-set and produces the
// trade log. Entries fill at the signal bar's close; exits fill at the
// stop or target when a later bar's range crosses them, with the stop
// taking priority when both are crossed in the same bar. A position
// still open at series end is closed at the final close.
//
// The simulation is deterministic: identical bars, rule-set parameters,
// and cost config always produce an identical trade log.
func Simulate(symbol string, bars []models.Bar, rs strategy.RuleSet, cfg SimConfig) []models.Trade {
	if len(bars) == 0 || rs == nil {
		return nil
	}

	signals := rs.Evaluate(bars)
	signalAt := make(map[int]strategy.Signal, len(signals))
	for _, sig := range signals {
		signalAt[sig.Index] = sig
	}

	atr := strategy.ComputeATR(bars, rs.Parameters().ATRPeriod)
	cost := cfg.PerTradeCost()

	var trades []models.Trade
	var open *models.Trade
	entryIndex := 0

	for i := 1; i < len(bars); i++ {
		bar := bars[i]

		if open != nil {
			exitPrice, reason, closed := checkExit(open, bar)
			if closed {
				finalize(open, bar, exitPrice, reason, i-entryIndex, cost)
				trades = append(trades, *open)
				open = nil
			}
			continue
		}

		sig, ok := signalAt[i]
		if !ok {
			continue
		}
		stop := rs.InitialStop(sig.Side, bar, bars[i-1], atr[i])
		entry := bar.Close
		target := rs.Target(sig.Side, entry, stop)
		open = &models.Trade{
			Symbol:       symbol,
			Side:         sig.Side,
			EntryTime:    bar.Timestamp,
			EntryPrice:   entry,
			StopPrice:    stop,
			TargetPrice:  target,
			EntryReasons: sig.Reasons,
		}
		entryIndex = i
	}

	if open != nil {
		last := bars[len(bars)-1]
		finalize(open, last, last.Close, models.ExitSeriesEnd, len(bars)-1-entryIndex, cost)
		trades = append(trades, *open)
	}

	return trades
}

func checkExit(t *models.Trade, bar models.Bar) (float64, models.ExitReason, bool) {
	if t.Side == models.SideLong {
		if bar.Low <= t.StopPrice {
			return t.StopPrice, models.ExitStopHit, true
		}
		if bar.High >= t.TargetPrice {
			return t.TargetPrice, models.ExitTargetHit, true
		}
		return 0, "", false
	}
	if bar.High >= t.StopPrice {
		return t.StopPrice, models.ExitStopHit, true
	}
	if bar.Low <= t.TargetPrice {
		return t.TargetPrice, models.ExitTargetHit, true
	}
	return 0, "", false
}

func finalize(t *models.Trade, bar models.Bar, exitPrice float64, reason models.ExitReason, barsHeld int, cost float64) {
	t.ExitTime = bar.Timestamp
	t.ExitPrice = exitPrice
	t.Exit = reason
	t.BarsHeld = barsHeld

	pnl := exitPrice - t.EntryPrice
	if t.Side == models.SideShort {
		pnl = t.EntryPrice - exitPrice
	}
	t.PnL = pnl - cost

	risk := math.Abs(t.EntryPrice - t.StopPrice)
	if risk > 0 {
		t.RMultiple = t.PnL / risk
	}
}
