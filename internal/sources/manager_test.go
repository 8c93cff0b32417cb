package sources

import (
	"context"
	"currents/internal/core"
	"currents/internal/feeds"
	"currents/internal/persistence"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Mock repositories

type MockContentRepo struct {
	items map[string]core.ContentItem
}

func NewMockContentRepo() *MockContentRepo {
	return &MockContentRepo{items: map[string]core.ContentItem{}}
}

func (m *MockContentRepo) Create(ctx context.Context, item *core.ContentItem) error {
	m.items[item.ID] = *item
	return nil
}

func (m *MockContentRepo) Get(ctx context.Context, id string) (*core.ContentItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &item, nil
}

func (m *MockContentRepo) ListSince(ctx context.Context, owner string, since time.Time) ([]core.ContentItem, error) {
	return nil, nil
}

func (m *MockContentRepo) ListBetween(ctx context.Context, owner string, from, to time.Time) ([]core.ContentItem, error) {
	return nil, nil
}

func (m *MockContentRepo) ListByType(ctx context.Context, owner string, contentType core.ContentType, since time.Time) ([]core.ContentItem, error) {
	return nil, nil
}

func (m *MockContentRepo) List(ctx context.Context, owner string, opts persistence.ListOptions) ([]core.ContentItem, error) {
	return nil, nil
}

type MockFeedRepo struct {
	feeds map[string]core.Feed
}

func NewMockFeedRepo() *MockFeedRepo {
	return &MockFeedRepo{feeds: map[string]core.Feed{}}
}

func (m *MockFeedRepo) Create(ctx context.Context, feed *core.Feed) error {
	m.feeds[feed.ID] = *feed
	return nil
}

func (m *MockFeedRepo) Get(ctx context.Context, id string) (*core.Feed, error) {
	feed, ok := m.feeds[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &feed, nil
}

func (m *MockFeedRepo) GetByURL(ctx context.Context, owner, url string) (*core.Feed, error) {
	for _, feed := range m.feeds {
		if feed.Owner == owner && feed.URL == url {
			f := feed
			return &f, nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (m *MockFeedRepo) ListActive(ctx context.Context, owner string) ([]core.Feed, error) {
	var out []core.Feed
	for _, feed := range m.feeds {
		if feed.Owner == owner && feed.Active {
			out = append(out, feed)
		}
	}
	return out, nil
}

func (m *MockFeedRepo) List(ctx context.Context, owner string) ([]core.Feed, error) {
	var out []core.Feed
	for _, feed := range m.feeds {
		if feed.Owner == owner {
			out = append(out, feed)
		}
	}
	return out, nil
}

func (m *MockFeedRepo) Update(ctx context.Context, feed *core.Feed) error {
	m.feeds[feed.ID] = *feed
	return nil
}

func (m *MockFeedRepo) Delete(ctx context.Context, owner, id string) error {
	feed, ok := m.feeds[id]
	if !ok || feed.Owner != owner {
		return persistence.ErrNotFound
	}
	delete(m.feeds, id)
	return nil
}

type MockTrendRepo struct{}

func (m *MockTrendRepo) GetByKeyword(ctx context.Context, owner, keyword string) (*core.TrendRecord, error) {
	return nil, persistence.ErrNotFound
}
func (m *MockTrendRepo) Upsert(ctx context.Context, trend *core.TrendRecord) error { return nil }
func (m *MockTrendRepo) ListDetectedSince(ctx context.Context, owner string, since time.Time, opts persistence.ListOptions) ([]core.TrendRecord, error) {
	return nil, nil
}
func (m *MockTrendRepo) ListAll(ctx context.Context, owner string) ([]core.TrendRecord, error) {
	return nil, nil
}
func (m *MockTrendRepo) Delete(ctx context.Context, owner, id string) error { return nil }

type MockDatabase struct {
	content *MockContentRepo
	feeds   *MockFeedRepo
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{content: NewMockContentRepo(), feeds: NewMockFeedRepo()}
}

func (m *MockDatabase) Content() persistence.ContentRepository { return m.content }
func (m *MockDatabase) Trends() persistence.TrendRepository    { return &MockTrendRepo{} }
func (m *MockDatabase) Feeds() persistence.FeedRepository      { return m.feeds }
func (m *MockDatabase) Ping(ctx context.Context) error         { return nil }
func (m *MockDatabase) Close() error                           { return nil }

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech News</title>
    <description>Latest technology news</description>
    <item>
      <title>Go 1.24 Released</title>
      <link>https://example.com/go-124</link>
      <description>&lt;p&gt;The Go team has &lt;b&gt;released&lt;/b&gt; Go 1.24&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No Link Item</title>
      <description>This one has no link and is skipped</description>
    </item>
  </channel>
</rss>`

func feedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedFixture))
	}))
}

func newTestManager(db *MockDatabase) *Manager {
	return NewManager(db, feeds.NewManager("test-agent", 5*time.Second), 50)
}

func TestAddFeed(t *testing.T) {
	server := feedServer()
	defer server.Close()

	db := NewMockDatabase()
	m := newTestManager(db)

	feed, err := m.AddFeed(context.Background(), "alice", server.URL)
	if err != nil {
		t.Fatalf("Failed to add feed: %v", err)
	}
	if feed.Title != "Tech News" {
		t.Errorf("Expected feed title from the document, got %q", feed.Title)
	}
	if !feed.Active {
		t.Error("Expected new feed to be active")
	}

	// Adding the same URL again reports the existing feed.
	if _, err := m.AddFeed(context.Background(), "alice", server.URL); err == nil {
		t.Error("Expected error when adding a duplicate feed")
	}
}

func TestRefreshFeedIngestsContent(t *testing.T) {
	server := feedServer()
	defer server.Close()

	db := NewMockDatabase()
	m := newTestManager(db)

	feed, err := m.AddFeed(context.Background(), "alice", server.URL)
	if err != nil {
		t.Fatalf("Failed to add feed: %v", err)
	}

	added, err := m.RefreshFeed(context.Background(), "alice", feed.ID)
	if err != nil {
		t.Fatalf("Failed to refresh feed: %v", err)
	}
	// The linkless item is skipped.
	if added != 1 {
		t.Errorf("Expected 1 ingested item, got %d", added)
	}

	var stored core.ContentItem
	for _, item := range db.content.items {
		stored = item
	}
	if stored.Type != core.ContentTypeArticle {
		t.Errorf("Expected article type, got %q", stored.Type)
	}
	if stored.Body != "The Go team has released Go 1.24" {
		t.Errorf("Expected HTML stripped from body, got %q", stored.Body)
	}
}

func TestRefreshFeedIsIdempotent(t *testing.T) {
	server := feedServer()
	defer server.Close()

	db := NewMockDatabase()
	m := newTestManager(db)

	feed, err := m.AddFeed(context.Background(), "alice", server.URL)
	if err != nil {
		t.Fatalf("Failed to add feed: %v", err)
	}

	if _, err := m.RefreshFeed(context.Background(), "alice", feed.ID); err != nil {
		t.Fatalf("First refresh failed: %v", err)
	}
	added, err := m.RefreshFeed(context.Background(), "alice", feed.ID)
	if err != nil {
		t.Fatalf("Second refresh failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected no new items on repeat refresh, got %d", added)
	}
	if len(db.content.items) != 1 {
		t.Errorf("Expected 1 stored item after repeat refresh, got %d", len(db.content.items))
	}
}

func TestRefreshFeedWrongOwner(t *testing.T) {
	server := feedServer()
	defer server.Close()

	db := NewMockDatabase()
	m := newTestManager(db)

	feed, err := m.AddFeed(context.Background(), "alice", server.URL)
	if err != nil {
		t.Fatalf("Failed to add feed: %v", err)
	}
	if _, err := m.RefreshFeed(context.Background(), "mallory", feed.ID); err == nil {
		t.Fatal("Expected error refreshing another owner's feed")
	}
}

func TestRefreshRecordsFetchErrors(t *testing.T) {
	server := feedServer()
	db := NewMockDatabase()
	m := newTestManager(db)

	feed, err := m.AddFeed(context.Background(), "alice", server.URL)
	if err != nil {
		t.Fatalf("Failed to add feed: %v", err)
	}
	server.Close()

	if _, err := m.RefreshFeed(context.Background(), "alice", feed.ID); err == nil {
		t.Fatal("Expected error after the feed went away")
	}

	stored, err := db.feeds.Get(context.Background(), feed.ID)
	if err != nil {
		t.Fatalf("Failed to load feed: %v", err)
	}
	if stored.ErrorCount != 1 {
		t.Errorf("Expected error count 1, got %d", stored.ErrorCount)
	}
	if stored.LastError == "" {
		t.Error("Expected last error to be recorded")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"<div>line one</div><div>line two</div>", "line one line two"},
		{"<p>intro</p><ul><li>alpha</li><li>beta</li></ul>", "intro alpha beta"},
		{"spaced   out\n\ttext", "spaced out text"},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.in); got != tc.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
