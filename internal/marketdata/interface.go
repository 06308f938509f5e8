// Package marketdata adapts an external OHLCV source into the typed
// bar series consumed by the evaluators.
package marketdata

import (
	"context"
	"time"

	"github.com/yourusername/gatekeeper/internal/models"
)

// FetchResult distinguishes a verified non-empty fetch from an
// explicit empty result. An empty result is not an error: the accessor
// responds by preserving prior state.
type FetchResult struct {
	Bars  []models.Bar
	Empty bool
}

// BarSource is the external market-data boundary. It is called once
// per symbol per run.
type BarSource interface {
	Fetch(ctx context.Context, symbol string, from, to time.Time) (FetchResult, error)
}

// BarStore persists the last-known-good series per symbol.
type BarStore interface {
	GetBySymbol(ctx context.Context, symbol string) ([]models.Bar, error)
	Save(ctx context.Context, symbol string, bars []models.Bar) error
}
