package core

import (
	"fmt"
	"time"
)

// ContentType identifies where a piece of content came from.
type ContentType string

const (
	ContentTypeTweet      ContentType = "tweet"
	ContentTypeVideo      ContentType = "video"
	ContentTypeArticle    ContentType = "article"
	ContentTypeNewsletter ContentType = "newsletter"
)

// Valid reports whether the content type is one of the known kinds.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeTweet, ContentTypeVideo, ContentTypeArticle, ContentTypeNewsletter:
		return true
	}
	return false
}

// ContentItem represents one piece of aggregated content owned by a user.
// Items are immutable once ingested; the trend engine only reads them.
type ContentItem struct {
	ID          string      `json:"id"`           // Unique identifier
	Owner       string      `json:"owner"`        // Owning user ID
	Type        ContentType `json:"type"`         // tweet, video, article, newsletter
	Title       string      `json:"title"`        // Item title (may be empty for tweets)
	Body        string      `json:"body"`         // Item body/text content
	URL         string      `json:"url"`          // Canonical URL of the item
	Author      string      `json:"author"`       // Author handle or name (optional)
	PublishedAt *time.Time  `json:"published_at"` // Publication time reported by the source
	CreatedAt   time.Time   `json:"created_at"`   // When the item was ingested
}

// Validate checks the fields required before an item may be persisted.
func (c *ContentItem) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("content item missing id")
	}
	if c.Owner == "" {
		return fmt.Errorf("content item missing owner")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("content item has unknown type %q", c.Type)
	}
	if c.URL == "" {
		return fmt.Errorf("content item missing url")
	}
	return nil
}

// Text returns the title and body joined for keyword matching.
func (c *ContentItem) Text() string {
	if c.Title == "" {
		return c.Body
	}
	if c.Body == "" {
		return c.Title
	}
	return c.Title + " " + c.Body
}

// KeywordCandidate is an ephemeral extraction result: a keyword together
// with the content items that mentioned it. Candidates are recomputed on
// every detection run and never persisted directly.
type KeywordCandidate struct {
	Keyword      string   `json:"keyword"`       // Lowercase token, #hashtag or @mention
	MentionCount int      `json:"mention_count"` // Number of distinct content items mentioning it
	ContentIDs   []string `json:"content_ids"`   // IDs of the mentioning content items
}

// TrendRecord is a persisted trend for one (owner, keyword) pair. At most
// one record exists per pair; re-detection updates the row in place.
type TrendRecord struct {
	ID                string    `json:"id"`                  // Unique identifier
	Owner             string    `json:"owner"`               // Owning user ID
	Keyword           string    `json:"keyword"`             // Trending keyword (unique per owner)
	Score             float64   `json:"score"`               // Composite trend score, 0-100
	ExternalSignal    *float64  `json:"external_signal"`     // External popularity score, 0-100 (nil if never enriched)
	ContentMentions   int       `json:"content_mentions"`    // Mentions across the owner's content
	Velocity          *float64  `json:"velocity"`            // Signed mention growth rate (nil if never computed)
	RelatedContentIDs []string  `json:"related_content_ids"` // Content items that drove the trend
	DetectedAt        time.Time `json:"detected_at"`         // Last detection run that surfaced this keyword
	CreatedAt         time.Time `json:"created_at"`          // First detection
	UpdatedAt         time.Time `json:"updated_at"`          // Last update
}

// Validate checks the fields required before a trend may be persisted.
func (t *TrendRecord) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trend record missing id")
	}
	if t.Owner == "" {
		return fmt.Errorf("trend record missing owner")
	}
	if t.Keyword == "" {
		return fmt.Errorf("trend record missing keyword")
	}
	if t.Score < 0 || t.Score > 100 {
		return fmt.Errorf("trend score %.2f out of range [0,100]", t.Score)
	}
	if t.ContentMentions < 0 {
		return fmt.Errorf("trend record has negative mention count")
	}
	return nil
}

// TrendHighlight is a compact (keyword, score) pair used in summaries.
type TrendHighlight struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// DetectionSummary reports the outcome of a detect-and-save run.
type DetectionSummary struct {
	Detected int              `json:"detected"` // Candidates that survived ranking
	Saved    int              `json:"saved"`    // Records upserted without error
	Top3     []TrendHighlight `json:"top_3"`    // Highest scored trends after the run
}

// TrendStats aggregates trend activity for one owner.
type TrendStats struct {
	TotalTrends  int      `json:"total_trends"`  // All records ever detected
	ActiveTrends int      `json:"active_trends"` // Records detected within the last 7 days
	AvgScore     float64  `json:"avg_score"`     // Mean score of active records
	TopKeywords  []string `json:"top_keywords"`  // Up to 5 highest scored active keywords
}

// TagCount is a hashtag or @mention with its occurrence count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SocialTags holds trending hashtags and mentions extracted from tweets.
type SocialTags struct {
	Hashtags []TagCount `json:"hashtags"`
	Mentions []TagCount `json:"mentions"`
}

// Feed represents an RSS/Atom feed source registered by a user.
type Feed struct {
	ID           string    `json:"id"`            // Unique identifier for the feed
	Owner        string    `json:"owner"`         // Owning user ID
	URL          string    `json:"url"`           // Feed URL
	Title        string    `json:"title"`         // Feed title
	Description  string    `json:"description"`   // Feed description
	LastFetched  time.Time `json:"last_fetched"`  // Last time the feed was fetched
	LastModified string    `json:"last_modified"` // Last-Modified header from the feed
	ETag         string    `json:"etag"`          // ETag header from the feed
	Active       bool      `json:"active"`        // Whether the feed is polled
	ErrorCount   int       `json:"error_count"`   // Number of consecutive fetch errors
	LastError    string    `json:"last_error"`    // Last error encountered
	DateAdded    time.Time `json:"date_added"`    // When the feed was registered
}

// FeedItem represents an entry discovered in an RSS/Atom feed before it is
// turned into a ContentItem.
type FeedItem struct {
	Title       string    `json:"title"`       // Item title
	Link        string    `json:"link"`        // Item URL
	Description string    `json:"description"` // Item description/summary (may contain HTML)
	Author      string    `json:"author"`      // Item author, when the feed provides one
	Published   time.Time `json:"published"`   // Publication date
	GUID        string    `json:"guid"`        // Unique identifier from the feed
}
