// Package sources manages feed sources and ingests their items as content.
package sources

import (
	"context"
	"currents/internal/core"
	"currents/internal/feeds"
	"currents/internal/logger"
	"currents/internal/persistence"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Manager handles feed source management and content ingestion.
type Manager struct {
	db          persistence.Database
	feedManager *feeds.Manager
	maxItems    int
	log         *slog.Logger
}

// NewManager creates a source manager.
func NewManager(db persistence.Database, feedManager *feeds.Manager, maxItemsPerFeed int) *Manager {
	if maxItemsPerFeed <= 0 {
		maxItemsPerFeed = 50
	}
	return &Manager{
		db:          db,
		feedManager: feedManager,
		maxItems:    maxItemsPerFeed,
		log:         logger.Get(),
	}
}

// AddFeed validates and registers a new RSS/Atom feed for the owner.
func (m *Manager) AddFeed(ctx context.Context, owner, feedURL string) (*core.Feed, error) {
	existing, err := m.db.Feeds().GetByURL(ctx, owner, feedURL)
	if err == nil {
		return existing, fmt.Errorf("feed already exists with ID %s", existing.ID)
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing feed: %w", err)
	}

	parsed, err := m.feedManager.FetchFeed(ctx, feedURL, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to validate feed: %w", err)
	}

	feed := &core.Feed{
		ID:          uuid.NewString(),
		Owner:       owner,
		URL:         feedURL,
		Title:       parsed.Title,
		Description: parsed.Description,
		Active:      true,
		DateAdded:   time.Now().UTC(),
	}
	if err := m.db.Feeds().Create(ctx, feed); err != nil {
		return nil, fmt.Errorf("failed to store feed: %w", err)
	}

	m.log.Info("Added new feed", "owner", owner, "id", feed.ID, "title", feed.Title)
	return feed, nil
}

// RemoveFeed removes one of the owner's feeds.
func (m *Manager) RemoveFeed(ctx context.Context, owner, feedID string) error {
	if err := m.db.Feeds().Delete(ctx, owner, feedID); err != nil {
		return fmt.Errorf("failed to remove feed: %w", err)
	}
	m.log.Info("Removed feed", "owner", owner, "id", feedID)
	return nil
}

// ListFeeds returns the owner's feeds, optionally including inactive ones.
func (m *Manager) ListFeeds(ctx context.Context, owner string, includeInactive bool) ([]core.Feed, error) {
	if includeInactive {
		return m.db.Feeds().List(ctx, owner)
	}
	return m.db.Feeds().ListActive(ctx, owner)
}

// RefreshAll refreshes every active feed for the owner and returns how
// many new content items were ingested. Per-feed failures are recorded on
// the feed and do not stop the rest.
func (m *Manager) RefreshAll(ctx context.Context, owner string) (int, error) {
	active, err := m.db.Feeds().ListActive(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to list active feeds: %w", err)
	}

	total := 0
	for i := range active {
		added, err := m.refresh(ctx, &active[i])
		if err != nil {
			m.log.Warn("Feed refresh failed", "owner", owner, "feed", active[i].URL, "error", err.Error())
			continue
		}
		total += added
	}
	return total, nil
}

// RefreshFeed refreshes a single feed by ID and returns how many new
// content items were ingested.
func (m *Manager) RefreshFeed(ctx context.Context, owner, feedID string) (int, error) {
	feed, err := m.db.Feeds().Get(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("failed to load feed: %w", err)
	}
	if feed.Owner != owner {
		return 0, persistence.ErrNotFound
	}
	return m.refresh(ctx, feed)
}

// refresh fetches the feed and stores unseen items as article content.
// Fetch state (caching headers, error counters) is written back to the
// feed row whatever the outcome.
func (m *Manager) refresh(ctx context.Context, feed *core.Feed) (int, error) {
	parsed, err := m.feedManager.FetchFeed(ctx, feed.URL, feed.LastModified, feed.ETag)
	if err != nil {
		feed.ErrorCount++
		feed.LastError = err.Error()
		if updateErr := m.db.Feeds().Update(ctx, feed); updateErr != nil {
			m.log.Warn("Failed to record feed error", "feed", feed.URL, "error", updateErr.Error())
		}
		return 0, err
	}

	feed.LastFetched = time.Now().UTC()
	feed.ErrorCount = 0
	feed.LastError = ""
	if parsed.NotModified {
		if err := m.db.Feeds().Update(ctx, feed); err != nil {
			return 0, fmt.Errorf("failed to update feed: %w", err)
		}
		return 0, nil
	}

	feed.LastModified = parsed.LastModified
	feed.ETag = parsed.ETag
	if parsed.Title != "" {
		feed.Title = parsed.Title
	}
	if err := m.db.Feeds().Update(ctx, feed); err != nil {
		return 0, fmt.Errorf("failed to update feed: %w", err)
	}

	items := parsed.Items
	if len(items) > m.maxItems {
		items = items[:m.maxItems]
	}

	added := 0
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		created, err := m.ingestItem(ctx, feed.Owner, item)
		if err != nil {
			m.log.Warn("Failed to ingest feed item", "feed", feed.URL, "link", item.Link, "error", err.Error())
			continue
		}
		if created {
			added++
		}
	}

	m.log.Info("Refreshed feed", "owner", feed.Owner, "feed", feed.URL, "new_items", added)
	return added, nil
}

// ingestItem stores one feed item as an article ContentItem. Items get a
// deterministic ID from (owner, link), so re-ingesting a feed is
// idempotent.
func (m *Manager) ingestItem(ctx context.Context, owner string, item core.FeedItem) (bool, error) {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(owner+"|"+item.Link)).String()

	if _, err := m.db.Content().Get(ctx, id); err == nil {
		return false, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return false, err
	}

	var published *time.Time
	if !item.Published.IsZero() {
		p := item.Published
		published = &p
	}

	content := &core.ContentItem{
		ID:          id,
		Owner:       owner,
		Type:        core.ContentTypeArticle,
		Title:       strings.TrimSpace(item.Title),
		Body:        StripHTML(item.Description),
		URL:         item.Link,
		Author:      strings.TrimSpace(item.Author),
		PublishedAt: published,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.db.Content().Create(ctx, content); err != nil {
		return false, err
	}
	return true, nil
}

// StripHTML reduces an HTML fragment to its text content. Feed
// descriptions routinely carry markup that would pollute keyword
// extraction. Text nodes are joined with spaces so adjacent block
// elements do not merge into one token.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range doc.Selection.Nodes {
		walk(node)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
