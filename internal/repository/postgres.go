package repository

import (
	"context"
	"errors"
	"fmt"

	"survey-analyzer/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the gazetteer table.
const Schema = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS places (
		id BIGSERIAL PRIMARY KEY,
		city VARCHAR(255) NOT NULL,
		state VARCHAR(64) NOT NULL,
		geom GEOGRAPHY(POINT, 4326) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS places_city_state_idx ON places (lower(city), lower(state));
	CREATE INDEX IF NOT EXISTS places_geom_idx ON places USING GIST (geom);
`

// Repository implements the gazetteer lookups for PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the places table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// FindPlace returns the coordinate of a city/state pair, or nil when unknown.
// Matching ignores case.
func (r *Repository) FindPlace(ctx context.Context, city, state string) (*models.Coordinate, error) {
	sql := `
		SELECT
			ST_Y(geom::geometry) as latitude,
			ST_X(geom::geometry) as longitude
		FROM places
		WHERE lower(city) = lower($1) AND lower(state) = lower($2)
		ORDER BY id
		LIMIT 1
	`

	var coord models.Coordinate
	err := r.db.QueryRow(ctx, sql, city, state).Scan(&coord.Latitude, &coord.Longitude)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to query place: %w", err)
	}

	return &coord, nil
}

// CountPlaces returns the number of gazetteer rows.
func (r *Repository) CountPlaces(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM places").Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count places: %w", err)
	}
	return count, nil
}
