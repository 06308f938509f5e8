package evaluation

import (
	"fmt"
	"strings"

	"github.com/yourusername/gatekeeper/internal/models"
)

// ValidateDeployScope is the pure deploy-scope invariant check: every
// symbol in the scope must belong to the policy-defined allowed set,
// and under the single-symbol deployment policy the scope must equal
// the mandated symbol exactly. A violation is fatal for the run and is
// returned as a distinct *models.ScopeViolationError, never as an
// ordinary gate failure.
func ValidateDeployScope(scope models.TradableScope, allowed []string) (string, error) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}

	for _, symbol := range scope.Symbols {
		if _, ok := allowedSet[symbol]; !ok {
			return "", &models.ScopeViolationError{Got: scope.Symbols, Allowed: allowed}
		}
	}

	if len(scope.Symbols) == 0 {
		return "", &models.ScopeViolationError{Got: nil, Allowed: allowed}
	}

	if len(allowed) == 1 {
		if len(scope.Symbols) != 1 || scope.Symbols[0] != allowed[0] {
			return "", &models.ScopeViolationError{Got: scope.Symbols, Allowed: allowed}
		}
		return fmt.Sprintf("Deploy scope OK: %s only.", allowed[0]), nil
	}

	return fmt.Sprintf("Deploy scope OK: %s.", strings.Join(scope.Symbols, ", ")), nil
}
