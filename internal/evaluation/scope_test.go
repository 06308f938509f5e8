package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/models"
)

func TestValidateDeployScopeSingleAllowed(t *testing.T) {
	msg, err := ValidateDeployScope(models.TradableScope{Symbols: []string{"QQQ"}}, []string{"QQQ"})
	require.NoError(t, err)
	assert.Equal(t, "Deploy scope OK: QQQ only.", msg)

	// The fallback scope passes the same check.
	msg, err = ValidateDeployScope(models.TradableScope{Symbols: []string{"QQQ"}, IsFallback: true}, []string{"QQQ"})
	require.NoError(t, err)
	assert.Equal(t, "Deploy scope OK: QQQ only.", msg)
}

func TestValidateDeployScopeViolations(t *testing.T) {
	tests := []struct {
		name    string
		scope   models.TradableScope
		allowed []string
	}{
		{
			name:    "symbol outside allowed set",
			scope:   models.TradableScope{Symbols: []string{"SPY"}},
			allowed: []string{"QQQ"},
		},
		{
			name:    "extra symbol alongside the mandated one",
			scope:   models.TradableScope{Symbols: []string{"QQQ", "SPY"}},
			allowed: []string{"QQQ"},
		},
		{
			name:    "empty scope",
			scope:   models.TradableScope{},
			allowed: []string{"QQQ"},
		},
		{
			name:    "subset violation in multi-symbol policy",
			scope:   models.TradableScope{Symbols: []string{"QQQ", "IWM"}},
			allowed: []string{"QQQ", "SPY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ValidateDeployScope(tt.scope, tt.allowed)
			require.Error(t, err)
			assert.Empty(t, msg)

			var violation *models.ScopeViolationError
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, tt.allowed, violation.Allowed)
		})
	}
}

func TestValidateDeployScopeMultiAllowed(t *testing.T) {
	scope := models.TradableScope{Symbols: []string{"QQQ", "SPY"}}
	msg, err := ValidateDeployScope(scope, []string{"QQQ", "SPY", "IWM"})
	require.NoError(t, err)
	assert.Equal(t, "Deploy scope OK: QQQ, SPY.", msg)
}
