package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

// PostgresDB implements the Database interface for PostgreSQL.
type PostgresDB struct {
	db      *sql.DB
	content ContentRepository
	trends  TrendRepository
	feeds   FeedRepository
}

// Options tune the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions returns the pool settings used when none are provided.
func DefaultOptions() Options {
	return Options{MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: 5 * time.Minute}
}

// NewPostgresDB opens a PostgreSQL connection, verifies it and ensures the
// schema exists. Zero-valued options fall back to DefaultOptions.
func NewPostgresDB(connectionString string, opts Options) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	def := DefaultOptions()
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = def.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = def.ConnMaxLifetime
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := &PostgresDB{db: db}
	if err := pg.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	pg.content = &postgresContentRepo{db: db}
	pg.trends = &postgresTrendRepo{db: db}
	pg.feeds = &postgresFeedRepo{db: db}
	return pg, nil
}

// ensureSchema creates the tables and indexes the application needs.
func (p *PostgresDB) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS content (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			content_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_content_owner_created ON content (owner, created_at)`,
		`CREATE TABLE IF NOT EXISTS trends (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			keyword TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			external_signal DOUBLE PRECISION,
			content_mentions INTEGER NOT NULL DEFAULT 0,
			velocity DOUBLE PRECISION,
			related_content_ids JSONB NOT NULL DEFAULT '[]',
			detected_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (owner, keyword)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trends_owner_detected ON trends (owner, detected_at)`,
		`CREATE TABLE IF NOT EXISTS feeds (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			last_fetched TIMESTAMPTZ,
			last_modified TEXT NOT NULL DEFAULT '',
			etag TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			error_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			date_added TIMESTAMPTZ NOT NULL,
			UNIQUE (owner, url)
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Content returns the content repository.
func (p *PostgresDB) Content() ContentRepository { return p.content }

// Trends returns the trend repository.
func (p *PostgresDB) Trends() TrendRepository { return p.trends }

// Feeds returns the feed repository.
func (p *PostgresDB) Feeds() FeedRepository { return p.feeds }

// Ping verifies the database connection.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresDB) Close() error {
	return p.db.Close()
}
