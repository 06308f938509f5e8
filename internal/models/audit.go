package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the refresh engine's per-run outcome.
type Decision string

const (
	DecisionRetain  Decision = "retain"
	DecisionReplace Decision = "replace"
)

// AuditEntry is one append-only row in the refresh audit log. Every
// run appends exactly one entry, so the log is a complete decision
// history rather than a log of changes.
type AuditEntry struct {
	ID             uuid.UUID `json:"id"`
	RunAt          time.Time `json:"run_ts"`
	Decision       Decision  `json:"decision"`
	ChampionBefore Champion  `json:"champion_before"`
	ChampionAfter  Champion  `json:"champion_after"`
	Rationale      string    `json:"rationale"`
}
