package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-plan-service/internal/platform/obs"
	"route-plan-service/internal/ports"
)

// SQLDrivingTimeCache is a Postgres-backed cache of driving times between
// ordered location pairs. Coordinates are matched exactly.
type SQLDrivingTimeCache struct {
	DB *sql.DB
}

func NewSQLDrivingTimeCache(db *sql.DB) *SQLDrivingTimeCache {
	return &SQLDrivingTimeCache{DB: db}
}

// Fetch cached driving times for the given pairs. Missing pairs are absent from the result.
func (s *SQLDrivingTimeCache) GetMany(
	ctx context.Context,
	pairs []ports.LocationPair,
) (_ map[ports.LocationPair]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "drivingtime.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("driving time cache: db is nil")
	}

	if len(pairs) == 0 {
		return map[ports.LocationPair]ports.DistanceResult{}, nil
	}

	fromLat := make([]float64, 0, len(pairs))
	fromLng := make([]float64, 0, len(pairs))
	toLat := make([]float64, 0, len(pairs))
	toLng := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		fromLat = append(fromLat, p.From.Latitude)
		fromLng = append(fromLng, p.From.Longitude)
		toLat = append(toLat, p.To.Latitude)
		toLng = append(toLng, p.To.Longitude)
	}

	q := `
	SELECT c.from_lat, c.from_lng, c.to_lat, c.to_lng, c.distance_meters, c.duration_seconds
    FROM driving_time_cache c
    JOIN unnest($1::float8[], $2::float8[], $3::float8[], $4::float8[])
        AS k(from_lat, from_lng, to_lat, to_lng)
        ON c.from_lat = k.from_lat
        AND c.from_lng = k.from_lng
        AND c.to_lat = k.to_lat
        AND c.to_lng = k.to_lng;
	`

	rows, err := s.DB.QueryContext(ctx, q, fromLat, fromLng, toLat, toLng)
	if err != nil {
		return nil, fmt.Errorf("get driving time cache: query driving_time_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[ports.LocationPair]ports.DistanceResult, len(pairs))
	for rows.Next() {
		var p ports.LocationPair
		var meters, seconds int
		if err := rows.Scan(
			&p.From.Latitude, &p.From.Longitude,
			&p.To.Latitude, &p.To.Longitude,
			&meters, &seconds,
		); err != nil {
			return nil, fmt.Errorf("get driving time cache: scan rows: %w", err)
		}
		out[p] = ports.DistanceResult{
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get driving time cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many driving time results in one transaction.
func (s *SQLDrivingTimeCache) PutMany(
	ctx context.Context,
	results map[ports.LocationPair]ports.DistanceResult,
) error {
	if s.DB == nil {
		return errors.New("driving time cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert driving time cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO driving_time_cache (from_lat, from_lng, to_lat, to_lng, distance_meters, duration_seconds)
    VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (from_lat, from_lng, to_lat, to_lng) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = now();
	`)
	if err != nil {
		return fmt.Errorf("insert driving time cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for p, r := range results {
		if _, err := stmt.ExecContext(
			ctx,
			p.From.Latitude, p.From.Longitude,
			p.To.Latitude, p.To.Longitude,
			r.DistanceMeters, r.DurationSeconds,
		); err != nil {
			return fmt.Errorf("insert driving time cache pair=%v->%v: %w", p.From.LatLng(), p.To.LatLng(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert driving time cache commit: %w", err)
	}

	return nil
}
