package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the Postgres tables used by SQLDrivingTimeCache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDrivingTimeCacheQuery := `
	CREATE TABLE IF NOT EXISTS driving_time_cache (
        from_lat DOUBLE PRECISION NOT NULL,
        from_lng DOUBLE PRECISION NOT NULL,
        to_lat DOUBLE PRECISION NOT NULL,
        to_lng DOUBLE PRECISION NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (from_lat, from_lng, to_lat, to_lng)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_driving_time_cache_updated_at
    ON driving_time_cache(updated_at);
	`

	statements := []string{
		createDrivingTimeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
