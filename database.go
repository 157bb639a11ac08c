package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

// importBatchSize is the unit of transactional work for the relational
// projection. A failure inside a batch rolls back that batch only; earlier
// batches stay committed.
const importBatchSize = 100

// Database wraps the relational projection of the catalog.
type Database struct {
	conn *sql.DB
}

// NewDatabase opens and verifies the Postgres connection.
func NewDatabase(cfg DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected successfully")

	return &Database{conn: db}, nil
}

func (d *Database) Close() error {
	return d.conn.Close()
}

// EnsureSchema creates the projection tables and the indexes backing the
// supported query shapes: state+difficulty listing, bounding-box lookup and
// rating-sorted listing.
func (d *Database) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS parks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			state_code TEXT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			acres DOUBLE PRECISION NOT NULL DEFAULT 0,
			designation TEXT,
			official_url TEXT,
			image_url TEXT,
			data_source TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trails (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			park_id TEXT NOT NULL,
			park_name TEXT NOT NULL,
			state_code TEXT NOT NULL,
			length_miles DOUBLE PRECISION,
			difficulty TEXT CHECK (difficulty IN ('easy', 'moderate', 'hard', 'expert')),
			trail_type TEXT,
			surface_type TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			duration_minutes INTEGER,
			region TEXT,
			elevation_feet INTEGER,
			dog_friendly BOOLEAN,
			season TEXT,
			rating DOUBLE PRECISION,
			data_source TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS campgrounds (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			state_code TEXT NOT NULL,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			reservable BOOLEAN NOT NULL DEFAULT FALSE,
			reservation_url TEXT,
			phone TEXT,
			amenities TEXT[],
			site_types TEXT[],
			pet_friendly BOOLEAN,
			price_min DOUBLE PRECISION,
			price_max DOUBLE PRECISION,
			open_season TEXT,
			nearest_park_id TEXT,
			photos TEXT[],
			rating DOUBLE PRECISION,
			data_source TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trails_state_difficulty ON trails (state_code, difficulty)`,
		`CREATE INDEX IF NOT EXISTS idx_trails_coords ON trails (latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_trails_rating ON trails (rating DESC NULLS LAST)`,
		`CREATE INDEX IF NOT EXISTS idx_campgrounds_coords ON campgrounds (latitude, longitude)`,
		`CREATE INDEX IF NOT EXISTS idx_campgrounds_rating ON campgrounds (rating DESC NULLS LAST)`,
	}

	for _, stmt := range stmts {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// difficultyKeywords normalizes free-text difficulty values onto the
// column's constrained enumeration.
var difficultyKeywords = []struct {
	keyword string
	value   string
}{
	{"most difficult", "expert"},
	{"very strenuous", "expert"},
	{"expert", "expert"},
	{"strenuous", "hard"},
	{"difficult", "hard"},
	{"hard", "hard"},
	{"intermediate", "moderate"},
	{"moderate", "moderate"},
	{"easiest", "easy"},
	{"beginner", "easy"},
	{"easy", "easy"},
}

// normalizeDifficulty maps a raw difficulty string onto the enumeration, or
// nil when no keyword matches.
func normalizeDifficulty(raw *string) *string {
	if raw == nil {
		return nil
	}
	lowered := strings.ToLower(*raw)
	for _, entry := range difficultyKeywords {
		if strings.Contains(lowered, entry.keyword) {
			return strptr(entry.value)
		}
	}
	return nil
}

// batchUpsert runs exec for each batch of rows inside its own transaction.
// A failed batch is rolled back, logged and skipped; remaining batches
// proceed. Partial success across batches is expected, within a batch it is
// not. Returns rows imported and batches failed.
func batchUpsert[T any](ctx context.Context, d *Database, rows []T, exec func(*sql.Tx, []T) error) (int, int) {
	imported := 0
	failedBatches := 0

	for i := 0; i < len(rows); i += importBatchSize {
		end := i + importBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		tx, err := d.conn.BeginTx(ctx, nil)
		if err != nil {
			slog.Error("failed to begin batch transaction", "error", err)
			failedBatches++
			continue
		}

		if err := exec(tx, batch); err != nil {
			tx.Rollback()
			slog.Error("batch rolled back", "offset", i, "size", len(batch), "error", err)
			failedBatches++
			continue
		}

		if err := tx.Commit(); err != nil {
			slog.Error("batch commit failed", "offset", i, "size", len(batch), "error", err)
			failedBatches++
			continue
		}
		imported += len(batch)
	}

	return imported, failedBatches
}

// ImportParks projects park records into the relational store.
func (d *Database) ImportParks(ctx context.Context, parks []Park) (int, int) {
	return batchUpsert(ctx, d, parks, func(tx *sql.Tx, batch []Park) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO parks (id, name, state_code, latitude, longitude, acres,
				designation, official_url, image_url, data_source, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				state_code = EXCLUDED.state_code,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				acres = EXCLUDED.acres,
				designation = EXCLUDED.designation,
				official_url = EXCLUDED.official_url,
				image_url = EXCLUDED.image_url,
				data_source = EXCLUDED.data_source,
				updated_at = EXCLUDED.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range batch {
			var lat, lon *float64
			if p.Coordinates != nil {
				lat, lon = &p.Coordinates.Lat, &p.Coordinates.Lon
			}
			if _, err := stmt.ExecContext(ctx,
				p.ID, p.Name, p.StateCode, lat, lon, p.Acres,
				nullable(p.Designation), p.OfficialURL, p.ImageURL,
				p.DataSource, p.LastUpdated,
			); err != nil {
				return fmt.Errorf("park %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// ImportTrails projects trail records, normalizing difficulty into the
// constrained column.
func (d *Database) ImportTrails(ctx context.Context, trails []Trail) (int, int) {
	return batchUpsert(ctx, d, trails, func(tx *sql.Tx, batch []Trail) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trails (id, name, park_id, park_name, state_code,
				length_miles, difficulty, trail_type, surface_type,
				latitude, longitude, duration_minutes, region, elevation_feet,
				dog_friendly, season, rating, data_source, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				park_id = EXCLUDED.park_id,
				park_name = EXCLUDED.park_name,
				state_code = EXCLUDED.state_code,
				length_miles = EXCLUDED.length_miles,
				difficulty = EXCLUDED.difficulty,
				trail_type = EXCLUDED.trail_type,
				surface_type = EXCLUDED.surface_type,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				duration_minutes = EXCLUDED.duration_minutes,
				region = EXCLUDED.region,
				elevation_feet = EXCLUDED.elevation_feet,
				dog_friendly = EXCLUDED.dog_friendly,
				season = EXCLUDED.season,
				rating = EXCLUDED.rating,
				data_source = EXCLUDED.data_source,
				updated_at = EXCLUDED.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range batch {
			var lat, lon *float64
			if t.Trailhead != nil {
				lat, lon = &t.Trailhead.Lat, &t.Trailhead.Lon
			}
			if _, err := stmt.ExecContext(ctx,
				t.ID, t.Name, t.ParkID, t.ParkName, t.StateCode,
				t.LengthMiles, normalizeDifficulty(t.Difficulty), t.TrailType, t.SurfaceType,
				lat, lon, t.EstimatedDurationMinutes, t.Region, t.ElevationFeet,
				t.DogFriendly, t.Season, t.Rating, t.DataSource, t.LastUpdated,
			); err != nil {
				return fmt.Errorf("trail %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// ImportCampgrounds projects unified facility records.
func (d *Database) ImportCampgrounds(ctx context.Context, campgrounds []Campground) (int, int) {
	return batchUpsert(ctx, d, campgrounds, func(tx *sql.Tx, batch []Campground) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO campgrounds (id, name, state_code, latitude, longitude,
				reservable, reservation_url, phone, amenities, site_types,
				pet_friendly, price_min, price_max, open_season, nearest_park_id,
				photos, rating, data_source, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				state_code = EXCLUDED.state_code,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				reservable = EXCLUDED.reservable,
				reservation_url = EXCLUDED.reservation_url,
				phone = EXCLUDED.phone,
				amenities = EXCLUDED.amenities,
				site_types = EXCLUDED.site_types,
				pet_friendly = EXCLUDED.pet_friendly,
				price_min = EXCLUDED.price_min,
				price_max = EXCLUDED.price_max,
				open_season = EXCLUDED.open_season,
				nearest_park_id = EXCLUDED.nearest_park_id,
				photos = EXCLUDED.photos,
				rating = EXCLUDED.rating,
				data_source = EXCLUDED.data_source,
				updated_at = EXCLUDED.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, cg := range batch {
			var lat, lon *float64
			if cg.Coordinates != nil {
				lat, lon = &cg.Coordinates.Lat, &cg.Coordinates.Lon
			}
			var priceMin, priceMax *float64
			if cg.Prices != nil {
				priceMin, priceMax = &cg.Prices.Min, &cg.Prices.Max
			}
			if _, err := stmt.ExecContext(ctx,
				cg.ID, cg.Name, cg.StateCode, lat, lon,
				cg.Reservable, cg.ReservationURL, cg.Phone,
				pq.Array(cg.Amenities), pq.Array(cg.SiteTypes),
				cg.PetFriendly, priceMin, priceMax, cg.OpenSeason, cg.NearestParkID,
				pq.Array(cg.Photos), cg.Rating, cg.DataSource, cg.LastUpdated,
			); err != nil {
				return fmt.Errorf("campground %s: %w", cg.ID, err)
			}
		}
		return nil
	})
}

// CountTrailsByState returns the trail count in the projection for a state.
func (d *Database) CountTrailsByState(ctx context.Context, stateCode string) (int, error) {
	var count int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trails WHERE state_code = $1`, stateCode).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trails: %w", err)
	}
	return count, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
