package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/models"
)

// PostgresAuditRepository reads the refresh audit log.
type PostgresAuditRepository struct {
	db *database.DB
}

// NewPostgresAuditRepository creates a new audit repository.
func NewPostgresAuditRepository(db *database.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

// List returns the most recent audit entries, newest first.
func (r *PostgresAuditRepository) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, run_ts, decision, champion_before, champion_after, rationale
		FROM refresh_audit
		ORDER BY run_ts DESC
		LIMIT $1
	`
	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var decision string
		var beforeJSON, afterJSON []byte
		if err := rows.Scan(&e.ID, &e.RunAt, &decision, &beforeJSON, &afterJSON, &e.Rationale); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Decision = models.Decision(decision)
		if err := json.Unmarshal(beforeJSON, &e.ChampionBefore); err != nil {
			return nil, fmt.Errorf("failed to decode audit entry: %w", err)
		}
		if err := json.Unmarshal(afterJSON, &e.ChampionAfter); err != nil {
			return nil, fmt.Errorf("failed to decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// Count returns the total number of audit entries.
func (r *PostgresAuditRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetPool().QueryRow(ctx, `SELECT COUNT(*) FROM refresh_audit`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}
