package learning

import (
	"context"
	"time"

	"github.com/yourusername/gatekeeper/internal/models"
)

// RefreshStore is the single point of shared mutable state: the
// persisted champion and the append-only audit log. Implementations
// must execute the decide callback as one logically atomic unit
// (read the current champion, decide, write the new champion, append
// the audit entry) serialized against concurrent runs. A contender
// that loses the race must re-run decide against the freshly committed
// champion, never overwrite it.
type RefreshStore interface {
	// Current returns the persisted champion, or models.ErrNotFound.
	Current(ctx context.Context) (models.Champion, error)
	// RunDecision executes decide under the single-writer lock. The
	// returned champion is written only when the audit entry's decision
	// is replace; the audit entry is always appended.
	RunDecision(ctx context.Context, decide DecideFunc) (models.AuditEntry, error)
}

// DecideFunc inspects the committed champion and produces the decision.
type DecideFunc func(current models.Champion) (models.Champion, models.AuditEntry, error)

// BootstrapChampion seeds a neutral champion for the mandated symbol
// when no champion exists yet.
func BootstrapChampion(symbol string) models.Champion {
	return models.Champion{
		Symbol:      symbol,
		Params:      models.DefaultStrategyParams(),
		Metrics:     models.NeutralMetrics(),
		Version:     1,
		LastUpdated: time.Unix(0, 0).UTC(),
	}
}
