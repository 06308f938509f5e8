package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bars (
		symbol     TEXT             NOT NULL,
		ts         TIMESTAMPTZ      NOT NULL,
		open       DOUBLE PRECISION NOT NULL,
		high       DOUBLE PRECISION NOT NULL,
		low        DOUBLE PRECISION NOT NULL,
		close      DOUBLE PRECISION NOT NULL,
		volume     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, ts)
	)`,
	`CREATE TABLE IF NOT EXISTS champion (
		id           INT PRIMARY KEY CHECK (id = 1),
		symbol       TEXT             NOT NULL,
		candidate_id INT              NOT NULL DEFAULT 0,
		params       JSONB            NOT NULL,
		metrics      JSONB            NOT NULL,
		stability    DOUBLE PRECISION NOT NULL DEFAULT 0,
		score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		version      BIGINT           NOT NULL,
		last_updated TIMESTAMPTZ      NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_audit (
		id              UUID PRIMARY KEY,
		run_ts          TIMESTAMPTZ NOT NULL,
		decision        TEXT        NOT NULL,
		champion_before JSONB       NOT NULL,
		champion_after  JSONB       NOT NULL,
		rationale       TEXT        NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS challenger_leaderboard (
		symbol               TEXT             NOT NULL,
		candidate_id         INT              NOT NULL,
		rank                 INT              NOT NULL,
		params               JSONB            NOT NULL,
		metrics              JSONB            NOT NULL,
		stress_expectancy    DOUBLE PRECISION NOT NULL,
		mean_fold_expectancy DOUBLE PRECISION NOT NULL,
		min_fold_expectancy  DOUBLE PRECISION NOT NULL,
		stability            DOUBLE PRECISION NOT NULL,
		score                DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, candidate_id)
	)`,
}

// Initialize creates a connection pool and ensures the schema exists.
func Initialize(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
