package keywords

import (
	"context"
	"currents/internal/core"
	"currents/internal/persistence"
	"errors"
	"strings"
	"testing"
	"time"
)

// Mock content repository

type MockContentRepo struct {
	items    []core.ContentItem
	failList bool
}

func (m *MockContentRepo) Create(ctx context.Context, item *core.ContentItem) error {
	m.items = append(m.items, *item)
	return nil
}

func (m *MockContentRepo) Get(ctx context.Context, id string) (*core.ContentItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (m *MockContentRepo) ListSince(ctx context.Context, owner string, since time.Time) ([]core.ContentItem, error) {
	if m.failList {
		return nil, errors.New("mock list error")
	}
	var out []core.ContentItem
	for _, item := range m.items {
		if item.Owner == owner && !item.CreatedAt.Before(since) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockContentRepo) ListBetween(ctx context.Context, owner string, from, to time.Time) ([]core.ContentItem, error) {
	var out []core.ContentItem
	for _, item := range m.items {
		if item.Owner == owner && !item.CreatedAt.Before(from) && item.CreatedAt.Before(to) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockContentRepo) ListByType(ctx context.Context, owner string, contentType core.ContentType, since time.Time) ([]core.ContentItem, error) {
	if m.failList {
		return nil, errors.New("mock list error")
	}
	var out []core.ContentItem
	for _, item := range m.items {
		if item.Owner == owner && item.Type == contentType && !item.CreatedAt.Before(since) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockContentRepo) List(ctx context.Context, owner string, opts persistence.ListOptions) ([]core.ContentItem, error) {
	var out []core.ContentItem
	for _, item := range m.items {
		if item.Owner == owner {
			out = append(out, item)
		}
	}
	return out, nil
}

func testItem(id, owner, body string) core.ContentItem {
	return core.ContentItem{
		ID:        id,
		Owner:     owner,
		Type:      core.ContentTypeTweet,
		Body:      body,
		URL:       "https://example.com/" + id,
		CreatedAt: time.Now().UTC(),
	}
}

func TestExtractFromTextEmpty(t *testing.T) {
	if got := ExtractFromText("", 3, 20); got != nil {
		t.Errorf("Expected nil for empty text, got %v", got)
	}
}

func TestExtractFromTextStopWordsOnly(t *testing.T) {
	got := ExtractFromText("the and of to that have with from", 3, 20)
	if len(got) != 0 {
		t.Errorf("Expected no keywords from stop words, got %v", got)
	}
}

func TestExtractFromTextFrequencyOrder(t *testing.T) {
	text := "kubernetes rust kubernetes golang kubernetes rust"
	got := ExtractFromText(text, 3, 20)
	want := []string{"kubernetes", "rust", "golang"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d keywords, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExtractFromTextTiesKeepFirstSeenOrder(t *testing.T) {
	got := ExtractFromText("zebra apple zebra apple", 3, 20)
	want := []string{"zebra", "apple"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestExtractFromTextTagsBypassFilters(t *testing.T) {
	// #ai and @go are shorter than min length and "go" is a stop word, but
	// tags skip both filters.
	got := ExtractFromText("#ai @go launch", 3, 20)
	found := map[string]bool{}
	for _, kw := range got {
		found[kw] = true
	}
	if !found["#ai"] {
		t.Errorf("Expected #ai to survive extraction, got %v", got)
	}
	if !found["@go"] {
		t.Errorf("Expected @go to survive extraction, got %v", got)
	}
	if !found["launch"] {
		t.Errorf("Expected launch to survive extraction, got %v", got)
	}
}

func TestExtractFromTextStripsURLs(t *testing.T) {
	got := ExtractFromText("read this https://example.com/kubernetes now", 3, 20)
	for _, kw := range got {
		if strings.Contains(kw, "kubernetes") || strings.Contains(kw, "example") {
			t.Errorf("Expected URL tokens to be stripped, got %q in %v", kw, got)
		}
	}
}

func TestExtractFromTextMinLength(t *testing.T) {
	got := ExtractFromText("ai ml llm models", 3, 20)
	for _, kw := range got {
		if len(kw) < 3 {
			t.Errorf("Expected only words of length >= 3, got %q", kw)
		}
	}
}

func TestExtractFromTextMaxKeywords(t *testing.T) {
	var words []string
	for r := 'a'; r <= 'z'; r++ {
		words = append(words, strings.Repeat(string(r), 4))
	}
	got := ExtractFromText(strings.Join(words, " "), 3, 20)
	if len(got) != 20 {
		t.Errorf("Expected 20 keywords, got %d", len(got))
	}
}

func TestExtractFromContentMinMentions(t *testing.T) {
	repo := &MockContentRepo{items: []core.ContentItem{
		testItem("c1", "alice", "openai released a model"),
		testItem("c2", "alice", "openai model benchmarks"),
		testItem("c3", "alice", "ethereum dropped today"),
	}}

	extractor := NewExtractor(repo)
	candidates, err := extractor.ExtractFromContent(context.Background(), "alice", 7, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	byKeyword := map[string]core.KeywordCandidate{}
	for _, c := range candidates {
		byKeyword[c.Keyword] = c
	}

	openai, ok := byKeyword["openai"]
	if !ok {
		t.Fatalf("Expected openai candidate, got %v", candidates)
	}
	if openai.MentionCount != 2 {
		t.Errorf("Expected openai mention count 2, got %d", openai.MentionCount)
	}
	if len(openai.ContentIDs) != 2 || openai.ContentIDs[0] != "c1" || openai.ContentIDs[1] != "c2" {
		t.Errorf("Expected sorted content IDs [c1 c2], got %v", openai.ContentIDs)
	}

	if _, ok := byKeyword["ethereum"]; ok {
		t.Error("Expected single-mention keyword ethereum to be filtered out")
	}
}

func TestExtractFromContentCountsDistinctItems(t *testing.T) {
	// Repeats within one item count once toward the mention threshold.
	repo := &MockContentRepo{items: []core.ContentItem{
		testItem("c1", "alice", "bitcoin bitcoin bitcoin"),
	}}

	extractor := NewExtractor(repo)
	candidates, err := extractor.ExtractFromContent(context.Background(), "alice", 7, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates from a single item, got %v", candidates)
	}
}

func TestExtractFromContentEmptyCorpus(t *testing.T) {
	extractor := NewExtractor(&MockContentRepo{})
	candidates, err := extractor.ExtractFromContent(context.Background(), "alice", 7, 2)
	if err != nil {
		t.Fatalf("Unexpected error for empty corpus: %v", err)
	}
	if candidates != nil {
		t.Errorf("Expected nil candidates for empty corpus, got %v", candidates)
	}
}

func TestExtractFromContentStoreFailure(t *testing.T) {
	extractor := NewExtractor(&MockContentRepo{failList: true})
	_, err := extractor.ExtractFromContent(context.Background(), "alice", 7, 2)
	if err == nil {
		t.Fatal("Expected error when the content store fails")
	}
}

func TestExtractSocialTags(t *testing.T) {
	repo := &MockContentRepo{items: []core.ContentItem{
		testItem("c1", "alice", "shipping #golang with @rob"),
		testItem("c2", "alice", "#golang generics #rust"),
	}}

	extractor := NewExtractor(repo)
	tags, err := extractor.ExtractSocialTags(context.Background(), "alice", 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(tags.Hashtags) != 2 {
		t.Fatalf("Expected 2 hashtags, got %v", tags.Hashtags)
	}
	if tags.Hashtags[0].Tag != "#golang" || tags.Hashtags[0].Count != 2 {
		t.Errorf("Expected #golang with count 2 first, got %+v", tags.Hashtags[0])
	}
	if len(tags.Mentions) != 1 || tags.Mentions[0].Tag != "@rob" {
		t.Errorf("Expected single mention @rob, got %v", tags.Mentions)
	}
}
