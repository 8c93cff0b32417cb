package persistence

import (
	"context"
	"currents/internal/core"
	"currents/internal/logger"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// postgresContentRepo implements ContentRepository for PostgreSQL.
type postgresContentRepo struct {
	db *sql.DB
}

const contentColumns = `id, owner, content_type, title, body, url, author, published_at, created_at`

func (r *postgresContentRepo) Create(ctx context.Context, item *core.ContentItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid content item: %w", err)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO content (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Owner, string(item.Type), item.Title, item.Body,
		item.URL, item.Author, nullTime(item.PublishedAt), item.CreatedAt,
	)
	return err
}

func (r *postgresContentRepo) Get(ctx context.Context, id string) (*core.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`
	item, err := scanContent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return item, err
}

func (r *postgresContentRepo) ListSince(ctx context.Context, owner string, since time.Time) ([]core.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE owner = $1 AND created_at >= $2 ORDER BY created_at DESC`
	return r.queryContent(ctx, query, owner, since)
}

func (r *postgresContentRepo) ListBetween(ctx context.Context, owner string, from, to time.Time) ([]core.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE owner = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at DESC`
	return r.queryContent(ctx, query, owner, from, to)
}

func (r *postgresContentRepo) ListByType(ctx context.Context, owner string, contentType core.ContentType, since time.Time) ([]core.ContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE owner = $1 AND content_type = $2 AND created_at >= $3 ORDER BY created_at DESC`
	return r.queryContent(ctx, query, owner, string(contentType), since)
}

func (r *postgresContentRepo) List(ctx context.Context, owner string, opts ListOptions) ([]core.ContentItem, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = 100
	}
	query := `SELECT ` + contentColumns + ` FROM content WHERE owner = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.queryContent(ctx, query, owner, limit, opts.Offset)
}

func (r *postgresContentRepo) queryContent(ctx context.Context, query string, args ...interface{}) ([]core.ContentItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []core.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row scanner) (*core.ContentItem, error) {
	var item core.ContentItem
	var contentType string
	var published sql.NullTime

	err := row.Scan(&item.ID, &item.Owner, &contentType, &item.Title, &item.Body,
		&item.URL, &item.Author, &published, &item.CreatedAt)
	if err != nil {
		return nil, err
	}

	item.Type = core.ContentType(contentType)
	if published.Valid {
		t := published.Time
		item.PublishedAt = &t
	}
	return &item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// postgresTrendRepo implements TrendRepository for PostgreSQL.
type postgresTrendRepo struct {
	db *sql.DB
}

const trendColumns = `id, owner, keyword, score, external_signal, content_mentions, velocity, related_content_ids, detected_at, created_at, updated_at`

func (r *postgresTrendRepo) GetByKeyword(ctx context.Context, owner, keyword string) (*core.TrendRecord, error) {
	query := `SELECT ` + trendColumns + ` FROM trends WHERE owner = $1 AND keyword = $2`
	trend, err := scanTrend(r.db.QueryRowContext(ctx, query, owner, keyword))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return trend, err
}

// Upsert writes the trend, updating the existing (owner, keyword) row when
// one exists. The row's created_at survives updates; updated_at advances.
func (r *postgresTrendRepo) Upsert(ctx context.Context, trend *core.TrendRecord) error {
	if err := trend.Validate(); err != nil {
		return fmt.Errorf("invalid trend record: %w", err)
	}

	relatedJSON, err := json.Marshal(trend.RelatedContentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal related content IDs: %w", err)
	}

	now := time.Now().UTC()
	if trend.CreatedAt.IsZero() {
		trend.CreatedAt = now
	}
	trend.UpdatedAt = now

	query := `
		INSERT INTO trends (` + trendColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner, keyword) DO UPDATE SET
			score = EXCLUDED.score,
			external_signal = EXCLUDED.external_signal,
			content_mentions = EXCLUDED.content_mentions,
			velocity = EXCLUDED.velocity,
			related_content_ids = EXCLUDED.related_content_ids,
			detected_at = EXCLUDED.detected_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		trend.ID, trend.Owner, trend.Keyword, trend.Score, nullFloat(trend.ExternalSignal),
		trend.ContentMentions, nullFloat(trend.Velocity), relatedJSON,
		trend.DetectedAt, trend.CreatedAt, trend.UpdatedAt,
	)
	return err
}

func (r *postgresTrendRepo) ListDetectedSince(ctx context.Context, owner string, since time.Time, opts ListOptions) ([]core.TrendRecord, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = 100
	}
	query := `SELECT ` + trendColumns + ` FROM trends WHERE owner = $1 AND detected_at >= $2 ORDER BY score DESC LIMIT $3 OFFSET $4`
	return r.queryTrends(ctx, query, owner, since, limit, opts.Offset)
}

func (r *postgresTrendRepo) ListAll(ctx context.Context, owner string) ([]core.TrendRecord, error) {
	query := `SELECT ` + trendColumns + ` FROM trends WHERE owner = $1 ORDER BY score DESC`
	return r.queryTrends(ctx, query, owner)
}

func (r *postgresTrendRepo) Delete(ctx context.Context, owner, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trends WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryTrends scans result rows, skipping rows whose stored data no longer
// parses instead of failing the whole read.
func (r *postgresTrendRepo) queryTrends(ctx context.Context, query string, args ...interface{}) ([]core.TrendRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []core.TrendRecord
	for rows.Next() {
		trend, err := scanTrend(rows)
		if err != nil {
			logger.Warn("Skipping unreadable trend row", "error", err.Error())
			continue
		}
		trends = append(trends, *trend)
	}
	return trends, rows.Err()
}

func scanTrend(row scanner) (*core.TrendRecord, error) {
	var trend core.TrendRecord
	var external, velocity sql.NullFloat64
	var relatedJSON []byte

	err := row.Scan(&trend.ID, &trend.Owner, &trend.Keyword, &trend.Score, &external,
		&trend.ContentMentions, &velocity, &relatedJSON,
		&trend.DetectedAt, &trend.CreatedAt, &trend.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if external.Valid {
		v := external.Float64
		trend.ExternalSignal = &v
	}
	if velocity.Valid {
		v := velocity.Float64
		trend.Velocity = &v
	}
	if len(relatedJSON) > 0 {
		if err := json.Unmarshal(relatedJSON, &trend.RelatedContentIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal related content IDs for %q: %w", trend.Keyword, err)
		}
	}
	return &trend, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// postgresFeedRepo implements FeedRepository for PostgreSQL.
type postgresFeedRepo struct {
	db *sql.DB
}

const feedColumns = `id, owner, url, title, description, last_fetched, last_modified, etag, active, error_count, last_error, date_added`

func (r *postgresFeedRepo) Create(ctx context.Context, feed *core.Feed) error {
	if feed.DateAdded.IsZero() {
		feed.DateAdded = time.Now().UTC()
	}
	query := `
		INSERT INTO feeds (` + feedColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		feed.ID, feed.Owner, feed.URL, feed.Title, feed.Description,
		nullTimeValue(feed.LastFetched), feed.LastModified, feed.ETag,
		feed.Active, feed.ErrorCount, feed.LastError, feed.DateAdded,
	)
	return err
}

func (r *postgresFeedRepo) Get(ctx context.Context, id string) (*core.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE id = $1`
	feed, err := scanFeed(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return feed, err
}

func (r *postgresFeedRepo) GetByURL(ctx context.Context, owner, url string) (*core.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE owner = $1 AND url = $2`
	feed, err := scanFeed(r.db.QueryRowContext(ctx, query, owner, url))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return feed, err
}

func (r *postgresFeedRepo) ListActive(ctx context.Context, owner string) ([]core.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE owner = $1 AND active = TRUE ORDER BY date_added`
	return r.queryFeeds(ctx, query, owner)
}

func (r *postgresFeedRepo) List(ctx context.Context, owner string) ([]core.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE owner = $1 ORDER BY date_added`
	return r.queryFeeds(ctx, query, owner)
}

func (r *postgresFeedRepo) Update(ctx context.Context, feed *core.Feed) error {
	query := `
		UPDATE feeds SET title = $2, description = $3, last_fetched = $4,
			last_modified = $5, etag = $6, active = $7, error_count = $8, last_error = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		feed.ID, feed.Title, feed.Description, nullTimeValue(feed.LastFetched),
		feed.LastModified, feed.ETag, feed.Active, feed.ErrorCount, feed.LastError,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresFeedRepo) Delete(ctx context.Context, owner, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE owner = $1 AND id = $2`, owner, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresFeedRepo) queryFeeds(ctx context.Context, query string, args ...interface{}) ([]core.Feed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []core.Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, *feed)
	}
	return feeds, rows.Err()
}

func scanFeed(row scanner) (*core.Feed, error) {
	var feed core.Feed
	var lastFetched sql.NullTime

	err := row.Scan(&feed.ID, &feed.Owner, &feed.URL, &feed.Title, &feed.Description,
		&lastFetched, &feed.LastModified, &feed.ETag, &feed.Active,
		&feed.ErrorCount, &feed.LastError, &feed.DateAdded)
	if err != nil {
		return nil, err
	}
	if lastFetched.Valid {
		feed.LastFetched = lastFetched.Time
	}
	return &feed, nil
}

func nullTimeValue(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
