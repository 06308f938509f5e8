package models

import (
	"errors"
	"fmt"
	"strings"
)

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrChampionConflict = errors.New("champion modified by concurrent refresh")
	ErrEmptyLeaderboard = errors.New("challenger leaderboard is empty")
	ErrSymbolRequired   = errors.New("symbol is required")
)

// ScopeViolationError signals that the tradable scope escaped the
// policy-mandated deploy set. It is fatal for the run and must never
// be folded into ordinary gate failures.
type ScopeViolationError struct {
	Got     []string
	Allowed []string
}

func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("deploy scope violation: expected [%s], got [%s]",
		strings.Join(e.Allowed, " "), strings.Join(e.Got, " "))
}

// IsScopeViolation reports whether err is a deploy-scope policy breach.
func IsScopeViolation(err error) bool {
	var sv *ScopeViolationError
	return errors.As(err, &sv)
}
