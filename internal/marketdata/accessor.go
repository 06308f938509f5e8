package marketdata

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/models"
)

// SeriesAccessor hands evaluators a clean, deduplicated, chronologically
// sorted bar series per symbol. It fails closed: on an error or an
// explicit empty fetch it returns the last-known-good series instead of
// propagating the failure, and never shrinks stored history.
type SeriesAccessor struct {
	source BarSource
	store  BarStore
	cache  *gocache.Cache
	logger *logrus.Logger
}

// NewSeriesAccessor creates a series accessor. The store may be nil,
// in which case last-known-good state lives only in the in-memory cache.
func NewSeriesAccessor(source BarSource, store BarStore, logger *logrus.Logger) *SeriesAccessor {
	if logger == nil {
		logger = logrus.New()
	}
	return &SeriesAccessor{
		source: source,
		store:  store,
		cache:  gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		logger: logger,
	}
}

// Series fetches the symbol's bars for the given range, merges them
// into the known history, and returns the full cleaned series. Only a
// verified non-empty fetch updates stored state.
func (a *SeriesAccessor) Series(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	known := a.lastKnownGood(ctx, symbol)

	result, err := a.source.Fetch(ctx, symbol, from, to)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Warn("Bar fetch failed, using last known good series")
		return known, nil
	}
	if result.Empty || len(result.Bars) == 0 {
		a.logger.WithField("symbol", symbol).Info("Bar fetch returned no new data, retaining prior history")
		return known, nil
	}

	merged := models.NormalizeBars(append(append([]models.Bar{}, known...), result.Bars...))
	if err := models.ValidateSeries(merged); err != nil {
		return nil, fmt.Errorf("invalid bar series for %s: %w", symbol, err)
	}

	a.cache.Set(symbol, merged, gocache.NoExpiration)
	if a.store != nil {
		if err := a.store.Save(ctx, symbol, merged); err != nil {
			a.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to persist bar series")
		}
	}

	a.logger.WithFields(logrus.Fields{
		"symbol":  symbol,
		"fetched": len(result.Bars),
		"total":   len(merged),
	}).Debug("Bar series updated")

	return merged, nil
}

func (a *SeriesAccessor) lastKnownGood(ctx context.Context, symbol string) []models.Bar {
	if cached, ok := a.cache.Get(symbol); ok {
		if bars, ok := cached.([]models.Bar); ok {
			return bars
		}
	}
	if a.store == nil {
		return nil
	}
	bars, err := a.store.GetBySymbol(ctx, symbol)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Debug("No stored bar series")
		return nil
	}
	a.cache.Set(symbol, bars, gocache.NoExpiration)
	return bars
}
