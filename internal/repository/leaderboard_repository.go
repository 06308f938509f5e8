package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/models"
)

// PostgresLeaderboardRepository persists the challenger leaderboard.
// Each search regenerates the artifact, so Replace deletes the
// symbol's previous rows and inserts the new ranking in one
// transaction.
type PostgresLeaderboardRepository struct {
	db *database.DB
}

// NewPostgresLeaderboardRepository creates a new leaderboard repository.
func NewPostgresLeaderboardRepository(db *database.DB) *PostgresLeaderboardRepository {
	return &PostgresLeaderboardRepository{db: db}
}

// Replace swaps the symbol's leaderboard for the given ranking. Rank
// is the candidate's position in the slice, best first.
func (r *PostgresLeaderboardRepository) Replace(ctx context.Context, symbol string, candidates []models.ChallengerCandidate) error {
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin leaderboard transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM challenger_leaderboard WHERE symbol = $1`, symbol); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO challenger_leaderboard (
			symbol, candidate_id, rank, params, metrics,
			stress_expectancy, mean_fold_expectancy, min_fold_expectancy,
			stability, score
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for rank, c := range candidates {
		paramsJSON, err := json.Marshal(c.Params)
		if err != nil {
			return fmt.Errorf("failed to encode candidate params: %w", err)
		}
		metricsJSON, err := json.Marshal(c.Metrics)
		if err != nil {
			return fmt.Errorf("failed to encode candidate metrics: %w", err)
		}
		batch.Queue(query,
			c.Symbol, c.CandidateID, rank+1, paramsJSON, metricsJSON,
			c.StressExpectancy, c.MeanFoldExpectancy, c.MinFoldExpectancy,
			c.Stability, c.Score,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range candidates {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to flush leaderboard batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit leaderboard: %w", err)
	}
	return nil
}

// List returns the symbol's leaderboard ordered by rank.
func (r *PostgresLeaderboardRepository) List(ctx context.Context, symbol string) ([]models.ChallengerCandidate, error) {
	query := `
		SELECT candidate_id, params, metrics,
			stress_expectancy, mean_fold_expectancy, min_fold_expectancy,
			stability, score
		FROM challenger_leaderboard
		WHERE symbol = $1
		ORDER BY rank ASC
	`
	rows, err := r.db.GetPool().Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var candidates []models.ChallengerCandidate
	for rows.Next() {
		c := models.ChallengerCandidate{Symbol: symbol}
		var paramsJSON, metricsJSON []byte
		if err := rows.Scan(&c.CandidateID, &paramsJSON, &metricsJSON,
			&c.StressExpectancy, &c.MeanFoldExpectancy, &c.MinFoldExpectancy,
			&c.Stability, &c.Score); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if err := json.Unmarshal(paramsJSON, &c.Params); err != nil {
			return nil, fmt.Errorf("failed to decode candidate params: %w", err)
		}
		if err := json.Unmarshal(metricsJSON, &c.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode candidate metrics: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return candidates, nil
}
