package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/learning"
	"github.com/yourusername/gatekeeper/internal/models"
)

// PostgresRefreshStore implements learning.RefreshStore. The champion
// lives in a single-row table; RunDecision locks that row FOR UPDATE
// inside a transaction, so concurrent runs serialize on the
// read-decide-write unit and a contender that arrives second decides
// against the freshly committed champion instead of overwriting it.
type PostgresRefreshStore struct {
	db              *database.DB
	bootstrapSymbol string
}

// NewPostgresRefreshStore creates the refresh store. The bootstrap
// symbol seeds a neutral champion on first use.
func NewPostgresRefreshStore(db *database.DB) *PostgresRefreshStore {
	return &PostgresRefreshStore{db: db, bootstrapSymbol: "QQQ"}
}

// SetBootstrapSymbol overrides the mandated symbol used for seeding.
func (s *PostgresRefreshStore) SetBootstrapSymbol(symbol string) {
	s.bootstrapSymbol = symbol
}

// Current returns the persisted champion, or models.ErrNotFound.
func (s *PostgresRefreshStore) Current(ctx context.Context) (models.Champion, error) {
	query := `
		SELECT symbol, candidate_id, params, metrics, stability, score, version, last_updated
		FROM champion WHERE id = 1
	`
	return scanChampion(s.db.GetPool().QueryRow(ctx, query))
}

// RunDecision executes decide under the single-writer row lock. The
// champion is overwritten wholesale only on a replace decision, and
// the audit entry is appended in the same transaction, so a run either
// commits the full Comparing transition or touches nothing.
func (s *PostgresRefreshStore) RunDecision(ctx context.Context, decide learning.DecideFunc) (models.AuditEntry, error) {
	tx, err := s.db.GetPool().Begin(ctx)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.lockCurrent(ctx, tx)
	if err != nil {
		return models.AuditEntry{}, err
	}

	next, entry, err := decide(current)
	if err != nil {
		return models.AuditEntry{}, err
	}

	if entry.Decision == models.DecisionReplace {
		if err := updateChampion(ctx, tx, next); err != nil {
			return models.AuditEntry{}, err
		}
	}
	if err := appendAudit(ctx, tx, entry); err != nil {
		return models.AuditEntry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.AuditEntry{}, fmt.Errorf("failed to commit refresh decision: %w", err)
	}
	return entry, nil
}

func (s *PostgresRefreshStore) lockCurrent(ctx context.Context, tx pgx.Tx) (models.Champion, error) {
	query := `
		SELECT symbol, candidate_id, params, metrics, stability, score, version, last_updated
		FROM champion WHERE id = 1
		FOR UPDATE
	`
	current, err := scanChampion(tx.QueryRow(ctx, query))
	if err == nil {
		return current, nil
	}
	if err != models.ErrNotFound {
		return models.Champion{}, err
	}

	seed := learning.BootstrapChampion(s.bootstrapSymbol)
	if err := insertChampion(ctx, tx, seed); err != nil {
		return models.Champion{}, err
	}
	return seed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChampion(row rowScanner) (models.Champion, error) {
	var c models.Champion
	var paramsJSON, metricsJSON []byte
	err := row.Scan(&c.Symbol, &c.CandidateID, &paramsJSON, &metricsJSON, &c.Stability, &c.Score, &c.Version, &c.LastUpdated)
	if err == pgx.ErrNoRows {
		return models.Champion{}, models.ErrNotFound
	}
	if err != nil {
		return models.Champion{}, fmt.Errorf("failed to read champion: %w", err)
	}
	if err := json.Unmarshal(paramsJSON, &c.Params); err != nil {
		return models.Champion{}, fmt.Errorf("failed to decode champion params: %w", err)
	}
	if err := json.Unmarshal(metricsJSON, &c.Metrics); err != nil {
		return models.Champion{}, fmt.Errorf("failed to decode champion metrics: %w", err)
	}
	return c, nil
}

func insertChampion(ctx context.Context, tx pgx.Tx, c models.Champion) error {
	paramsJSON, metricsJSON, err := marshalChampion(c)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO champion (id, symbol, candidate_id, params, metrics, stability, score, version, last_updated)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, query, c.Symbol, c.CandidateID, paramsJSON, metricsJSON, c.Stability, c.Score, c.Version, c.LastUpdated); err != nil {
		return fmt.Errorf("failed to seed champion: %w", err)
	}
	return nil
}

func updateChampion(ctx context.Context, tx pgx.Tx, c models.Champion) error {
	paramsJSON, metricsJSON, err := marshalChampion(c)
	if err != nil {
		return err
	}
	query := `
		UPDATE champion SET
			symbol = $1, candidate_id = $2, params = $3, metrics = $4,
			stability = $5, score = $6, version = $7, last_updated = $8
		WHERE id = 1
	`
	if _, err := tx.Exec(ctx, query, c.Symbol, c.CandidateID, paramsJSON, metricsJSON, c.Stability, c.Score, c.Version, c.LastUpdated); err != nil {
		return fmt.Errorf("failed to update champion: %w", err)
	}
	return nil
}

func marshalChampion(c models.Champion) ([]byte, []byte, error) {
	paramsJSON, err := json.Marshal(c.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode champion params: %w", err)
	}
	metricsJSON, err := json.Marshal(c.Metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode champion metrics: %w", err)
	}
	return paramsJSON, metricsJSON, nil
}

func appendAudit(ctx context.Context, tx pgx.Tx, entry models.AuditEntry) error {
	beforeJSON, err := json.Marshal(entry.ChampionBefore)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	afterJSON, err := json.Marshal(entry.ChampionAfter)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	query := `
		INSERT INTO refresh_audit (id, run_ts, decision, champion_before, champion_after, rationale)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, query, entry.ID, entry.RunAt, string(entry.Decision), beforeJSON, afterJSON, entry.Rationale); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
