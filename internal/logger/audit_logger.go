// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gatekeeper/internal/models"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRefreshDecision logs a champion refresh decision.
func (al *AuditLogger) LogRefreshDecision(entry models.AuditEntry) {
	al.WithFields(logrus.Fields{
		"audit_id":        entry.ID.String(),
		"run_ts":          entry.RunAt.Unix(),
		"decision":        string(entry.Decision),
		"champion_before": entry.ChampionBefore.Symbol,
		"champion_after":  entry.ChampionAfter.Symbol,
		"version_before":  entry.ChampionBefore.Version,
		"version_after":   entry.ChampionAfter.Version,
		"rationale":       entry.Rationale,
	}).Info("Champion refresh decision recorded")
}

// LogFallbackActivated logs activation of the mandated fallback scope.
func (al *AuditLogger) LogFallbackActivated(fallbackSymbol string, candidates int) {
	al.WithFields(logrus.Fields{
		"fallback_symbol": fallbackSymbol,
		"candidates":      candidates,
	}).Warn("All candidates failed gates, fallback scope activated")
}

// LogScopeViolation logs a deploy-scope policy breach. This is a fatal
// condition, distinct from ordinary gate failures.
func (al *AuditLogger) LogScopeViolation(got, allowed []string) {
	al.WithFields(logrus.Fields{
		"scope":       got,
		"allowed_set": allowed,
	}).Error("Deploy scope policy violation detected")
}

// LogGateVerdict logs one symbol's gate outcome for the audit trail.
func (al *AuditLogger) LogGateVerdict(verdict models.GateVerdict) {
	reasons := make([]string, 0, len(verdict.Reasons))
	for _, r := range verdict.Reasons {
		reasons = append(reasons, string(r))
	}
	al.WithFields(logrus.Fields{
		"symbol":  verdict.Symbol,
		"passed":  verdict.Passed,
		"reasons": reasons,
	}).Info("Gate verdict recorded")
}
