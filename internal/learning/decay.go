package learning

import (
	"fmt"

	"github.com/yourusername/gatekeeper/internal/models"
)

// DecayConfig sets the floor below which a standing champion is
// flagged as decayed.
type DecayConfig struct {
	ExpectancyFloor float64
}

// DecayCheck flags a champion whose metrics have fallen below the
// configured floor. It only annotates the audit rationale; it never
// mutates state or forces a replace on its own.
type DecayCheck struct {
	cfg DecayConfig
}

// NewDecayCheck creates a decay check.
func NewDecayCheck(cfg DecayConfig) *DecayCheck {
	return &DecayCheck{cfg: cfg}
}

// Check reports whether the champion's expectancy has decayed below
// the floor, with a human-readable note for the audit trail.
func (d *DecayCheck) Check(metrics models.SymbolMetrics) (bool, string) {
	if metrics.Expectancy < d.cfg.ExpectancyFloor {
		return true, fmt.Sprintf("champion expectancy %.4f below decay floor %.4f", metrics.Expectancy, d.cfg.ExpectancyFloor)
	}
	return false, ""
}
