// Package persistence provides database abstraction interfaces for storing
// content items, trend records and feed sources.
package persistence

import (
	"context"
	"currents/internal/core"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ContentRepository handles content item persistence operations. Content is
// written by ingestion and read-only for the trend engine.
type ContentRepository interface {
	// Create inserts a new content item
	Create(ctx context.Context, item *core.ContentItem) error

	// Get retrieves a content item by ID
	Get(ctx context.Context, id string) (*core.ContentItem, error)

	// ListSince retrieves an owner's content created at or after the cutoff
	ListSince(ctx context.Context, owner string, since time.Time) ([]core.ContentItem, error)

	// ListBetween retrieves an owner's content created in [from, to)
	ListBetween(ctx context.Context, owner string, from, to time.Time) ([]core.ContentItem, error)

	// ListByType retrieves an owner's content of one type since the cutoff
	ListByType(ctx context.Context, owner string, contentType core.ContentType, since time.Time) ([]core.ContentItem, error)

	// List retrieves an owner's content with pagination, newest first
	List(ctx context.Context, owner string, opts ListOptions) ([]core.ContentItem, error)
}

// TrendRepository handles trend record persistence operations. At most one
// record exists per (owner, keyword); Upsert keeps it that way.
type TrendRepository interface {
	// GetByKeyword retrieves the trend for an (owner, keyword) pair
	GetByKeyword(ctx context.Context, owner, keyword string) (*core.TrendRecord, error)

	// Upsert inserts the trend or updates the existing row for its
	// (owner, keyword) pair
	Upsert(ctx context.Context, trend *core.TrendRecord) error

	// ListDetectedSince retrieves an owner's trends detected at or after
	// the cutoff, ordered by score descending
	ListDetectedSince(ctx context.Context, owner string, since time.Time, opts ListOptions) ([]core.TrendRecord, error)

	// ListAll retrieves every trend for an owner
	ListAll(ctx context.Context, owner string) ([]core.TrendRecord, error)

	// Delete removes an owner's trend by ID
	Delete(ctx context.Context, owner, id string) error
}

// FeedRepository handles feed source persistence operations
type FeedRepository interface {
	// Create inserts a new feed
	Create(ctx context.Context, feed *core.Feed) error

	// Get retrieves a feed by ID
	Get(ctx context.Context, id string) (*core.Feed, error)

	// GetByURL retrieves an owner's feed by its URL
	GetByURL(ctx context.Context, owner, url string) (*core.Feed, error)

	// ListActive retrieves an owner's active feeds
	ListActive(ctx context.Context, owner string) ([]core.Feed, error)

	// List retrieves an owner's feeds, including inactive ones
	List(ctx context.Context, owner string) ([]core.Feed, error)

	// Update updates an existing feed
	Update(ctx context.Context, feed *core.Feed) error

	// Delete removes a feed by ID
	Delete(ctx context.Context, owner, id string) error
}

// ListOptions provides common pagination options.
type ListOptions struct {
	Limit  int // Maximum number of results (0 for the repository default)
	Offset int // Number of results to skip
}

// Database aggregates the repositories behind one connection.
type Database interface {
	// Content returns the content repository
	Content() ContentRepository

	// Trends returns the trend repository
	Trends() TrendRepository

	// Feeds returns the feed repository
	Feeds() FeedRepository

	// Ping verifies the database connection
	Ping(ctx context.Context) error

	// Close closes the database connection
	Close() error
}
