package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/models"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestAuditLoggerRefreshDecision(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogRefreshDecision(models.AuditEntry{
		ID:             uuid.New(),
		RunAt:          time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC),
		Decision:       models.DecisionRetain,
		ChampionBefore: models.Champion{Symbol: "QQQ", Version: 3},
		ChampionAfter:  models.Champion{Symbol: "QQQ", Version: 3},
		Rationale:      "no challenger cleared the guardrails",
	})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "retain", logEntry["decision"])
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "QQQ", logEntry["champion_before"])
}

func TestAuditLoggerScopeViolation(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogScopeViolation([]string{"SPY"}, []string{"QQQ"})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
}

func TestAuditLoggerFallbackActivated(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogFallbackActivated("QQQ", 4)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "QQQ", logEntry["fallback_symbol"])
	assert.Equal(t, float64(4), logEntry["candidates"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogGateVerdict(models.GateVerdict{
		Symbol:  "SPY",
		Passed:  false,
		Reasons: []models.ReasonCode{models.ReasonProfitFactor},
	})

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}
