// Package store provides a local SQLite cache for external interest
// scores, so repeated detection runs inside the cache TTL do not re-hit
// the rate-limited trends index.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed interest score cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// NewStore opens (or creates) the cache database under dataDir. Scores
// older than ttl are treated as absent.
func NewStore(dataDir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	dbPath := filepath.Join(dataDir, "currents.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	s := &Store{db: db, ttl: ttl}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	return s, nil
}

// initialize creates the cache table.
func (s *Store) initialize() error {
	table := `
	CREATE TABLE IF NOT EXISTS interest_scores (
		keyword TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		score REAL NOT NULL,
		fetched_at DATETIME NOT NULL,
		PRIMARY KEY (keyword, timeframe)
	);`
	if _, err := s.db.Exec(table); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a cached score for the keyword if it is still fresh.
func (s *Store) Get(keyword, timeframe string) (float64, bool) {
	query := `
	SELECT score FROM interest_scores
	WHERE keyword = ? AND timeframe = ? AND fetched_at > ?`

	cutoff := time.Now().UTC().Add(-s.ttl)
	var score float64
	err := s.db.QueryRow(query, keyword, timeframe, cutoff).Scan(&score)
	if err != nil {
		return 0, false
	}
	return score, true
}

// Put stores a score for the keyword, replacing any previous entry.
func (s *Store) Put(keyword, timeframe string, score float64) error {
	query := `
	INSERT OR REPLACE INTO interest_scores (keyword, timeframe, score, fetched_at)
	VALUES (?, ?, ?, ?)`

	_, err := s.db.Exec(query, keyword, timeframe, score, time.Now().UTC())
	return err
}

// Stats reports the number of cached scores, fresh and total.
func (s *Store) Stats() (fresh int, total int, err error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	err = s.db.QueryRow(`SELECT COUNT(*) FROM interest_scores WHERE fetched_at > ?`, cutoff).Scan(&fresh)
	if err != nil {
		return 0, 0, err
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM interest_scores`).Scan(&total)
	if err != nil {
		return 0, 0, err
	}
	return fresh, total, nil
}

// Cleanup removes entries older than the TTL.
func (s *Store) Cleanup() error {
	cutoff := time.Now().UTC().Add(-s.ttl)
	_, err := s.db.Exec(`DELETE FROM interest_scores WHERE fetched_at <= ?`, cutoff)
	return err
}

// Clear removes every cached score.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM interest_scores`)
	return err
}
