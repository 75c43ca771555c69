// Package storage persists crawl results to PostgreSQL when the CLI is given
// a DSN. Each crawl is recorded as a run; listings are upserted by URL so a
// later crawl refreshes what an earlier one saved.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	id          UUID PRIMARY KEY,
	location    TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	listings    INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS listings (
	source_url        TEXT PRIMARY KEY,
	run_id            UUID NOT NULL REFERENCES crawl_runs(id),
	location          TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	image_urls        TEXT[] NOT NULL DEFAULT '{}',
	image_count       INTEGER NOT NULL DEFAULT 0,
	bedroom_count     TEXT NOT NULL,
	bed_count         TEXT NOT NULL,
	bathroom_count    TEXT NOT NULL,
	property_features TEXT NOT NULL DEFAULT '',
	image_analysis    TEXT NOT NULL DEFAULT '',
	image_source      TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS listings_location_idx ON listings (location);
`

const upsertListing = `
	INSERT INTO listings (
		source_url, run_id, location, title, description, image_urls, image_count,
		bedroom_count, bed_count, bathroom_count, property_features, image_analysis, image_source
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)
	ON CONFLICT (source_url) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		location = EXCLUDED.location,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		image_urls = EXCLUDED.image_urls,
		image_count = EXCLUDED.image_count,
		bedroom_count = EXCLUDED.bedroom_count,
		bed_count = EXCLUDED.bed_count,
		bathroom_count = EXCLUDED.bathroom_count,
		property_features = EXCLUDED.property_features,
		image_analysis = COALESCE(NULLIF(EXCLUDED.image_analysis, ''), listings.image_analysis),
		image_source = EXCLUDED.image_source,
		updated_at = NOW()`

// PostgresStore saves crawl runs through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and makes sure the tables exist.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// SaveResults records one crawl run for location and upserts its parsed
// listings in a single transaction. Skipped listings are counted, not saved.
func (s *PostgresStore) SaveResults(ctx context.Context, location string, results []crawler.Result) (uuid.UUID, error) {
	run := NewRun(location, results)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO crawl_runs (id, location, started_at, listings, skipped) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Location, run.StartedAt, len(run.Rows), run.Skipped,
	); err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range run.Rows {
		batch.Queue(upsertListing, listingArgs(run, row)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return uuid.Nil, fmt.Errorf("upsert listings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit transaction: %w", err)
	}

	logger.Info("crawl saved", "run", run.ID, "location", location, "listings", len(run.Rows), "skipped", run.Skipped)
	return run.ID, nil
}

// Run is one crawl as it is stored.
type Run struct {
	ID        uuid.UUID
	Location  string
	StartedAt time.Time
	Rows      []crawler.Result
	Skipped   int
}

// NewRun splits results into rows to save and a skipped count. Rows sharing a
// URL are collapsed to the last one, since a batch may not upsert the same
// key twice.
func NewRun(location string, results []crawler.Result) Run {
	run := Run{ID: uuid.New(), Location: location, StartedAt: time.Now().UTC()}

	index := make(map[string]int, len(results))
	for _, r := range results {
		if !r.OK() || r.SourceURL == "" {
			run.Skipped++
			continue
		}
		if i, ok := index[r.SourceURL]; ok {
			run.Rows[i] = r
			continue
		}
		index[r.SourceURL] = len(run.Rows)
		run.Rows = append(run.Rows, r)
	}
	return run
}

// listingArgs are the upsertListing parameters for r.
func listingArgs(run Run, r crawler.Result) []any {
	images := r.ImageURLs
	if images == nil {
		images = []string{}
	}
	return []any{
		r.SourceURL, run.ID, run.Location, r.Title, r.Description, images, r.ImageCount,
		r.BedroomCount, r.BedCount, r.BathroomCount, r.PropertyFeatures, r.ImageAnalysis,
		string(r.Outcome.ImageSource),
	}
}
