// Package repository provides PostgreSQL persistence for bar history,
// the champion record, the refresh audit log, and the challenger
// leaderboard artifact.
package repository

import (
	"context"

	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/models"
)

// BarRepository persists per-symbol bar history.
type BarRepository interface {
	GetBySymbol(ctx context.Context, symbol string) ([]models.Bar, error)
	Save(ctx context.Context, symbol string, bars []models.Bar) error
}

// AuditRepository reads the append-only refresh audit log. Appends
// happen only inside the refresh store's atomic decision unit.
type AuditRepository interface {
	List(ctx context.Context, limit int) ([]models.AuditEntry, error)
	Count(ctx context.Context) (int, error)
}

// LeaderboardRepository persists the challenger leaderboard artifact,
// regenerated wholesale each run.
type LeaderboardRepository interface {
	Replace(ctx context.Context, symbol string, candidates []models.ChallengerCandidate) error
	List(ctx context.Context, symbol string) ([]models.ChallengerCandidate, error)
}

// Repositories aggregates all repository implementations.
type Repositories struct {
	Bars        BarRepository
	Audit       AuditRepository
	Leaderboard LeaderboardRepository
	Refresh     *PostgresRefreshStore
}

// NewRepositories creates the repository container backed by PostgreSQL.
func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Bars:        NewPostgresBarRepository(db),
		Audit:       NewPostgresAuditRepository(db),
		Leaderboard: NewPostgresLeaderboardRepository(db),
		Refresh:     NewPostgresRefreshStore(db),
	}
}
