package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/gatekeeper/internal/database"
	"github.com/yourusername/gatekeeper/internal/models"
)

// PostgresBarRepository implements BarRepository for PostgreSQL.
type PostgresBarRepository struct {
	db *database.DB
}

// NewPostgresBarRepository creates a new bar repository.
func NewPostgresBarRepository(db *database.DB) *PostgresBarRepository {
	return &PostgresBarRepository{db: db}
}

// GetBySymbol returns the stored series, chronologically sorted.
func (r *PostgresBarRepository) GetBySymbol(ctx context.Context, symbol string) ([]models.Bar, error) {
	query := `
		SELECT ts, open, high, low, close, volume
		FROM bars WHERE symbol = $1
		ORDER BY ts ASC
	`
	rows, err := r.db.GetPool().Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bars: %w", err)
	}
	return bars, nil
}

// Save upserts the series, last-write-wins on duplicate timestamps.
// Existing rows are never deleted, so stored history cannot shrink.
func (r *PostgresBarRepository) Save(ctx context.Context, symbol string, bars []models.Bar) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`
	for _, b := range bars {
		batch.Queue(query, symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()
	for range bars {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert bar: %w", err)
		}
	}
	return nil
}
