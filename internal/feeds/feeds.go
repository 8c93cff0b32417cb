// Package feeds provides RSS/Atom feed fetching and parsing.
package feeds

import (
	"bytes"
	"context"
	"currents/internal/core"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RSS represents an RSS feed document.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel represents an RSS channel.
type Channel struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []RSSItem `xml:"item"`
}

// RSSItem represents an RSS item.
type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author"`
	Creator     string `xml:"creator"` // dc:creator, common in practice
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// Atom represents an Atom feed document.
type Atom struct {
	XMLName  xml.Name    `xml:"feed"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle"`
	Entries  []AtomEntry `xml:"entry"`
}

// AtomLink represents an Atom link element.
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// AtomEntry represents an Atom entry.
type AtomEntry struct {
	Title   string     `xml:"title"`
	Link    []AtomLink `xml:"link"`
	Summary string     `xml:"summary"`
	Content string     `xml:"content"`
	Author  struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	ID        string `xml:"id"`
}

// ParsedFeed is the result of fetching a feed.
type ParsedFeed struct {
	Title        string
	Description  string
	Items        []core.FeedItem
	LastModified string
	ETag         string
	NotModified  bool
}

// Manager fetches and parses RSS/Atom feeds.
type Manager struct {
	client    *http.Client
	userAgent string
}

// NewManager creates a feed manager.
func NewManager(userAgent string, timeout time.Duration) *Manager {
	if userAgent == "" {
		userAgent = "Currents Feed Reader/1.0"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchFeed fetches and parses a feed, using conditional headers so
// unchanged feeds cost a 304 instead of a full download.
func (m *Manager) FetchFeed(ctx context.Context, feedURL, lastModified, etag string) (*ParsedFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotModified {
		return &ParsedFeed{NotModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	parsed, err := Parse(body)
	if err != nil {
		return nil, err
	}
	parsed.LastModified = resp.Header.Get("Last-Modified")
	parsed.ETag = resp.Header.Get("ETag")
	return parsed, nil
}

// Parse parses a feed document, trying RSS first and then Atom.
func Parse(body []byte) (*ParsedFeed, error) {
	var rss RSS
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&rss); err == nil && rss.Channel.Title != "" {
		return parseRSS(rss), nil
	}

	var atom Atom
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&atom); err == nil && atom.Title != "" {
		return parseAtom(atom), nil
	}

	return nil, fmt.Errorf("unable to parse as RSS or Atom feed")
}

func parseRSS(rss RSS) *ParsedFeed {
	parsed := &ParsedFeed{
		Title:       rss.Channel.Title,
		Description: rss.Channel.Description,
	}
	for _, item := range rss.Channel.Items {
		author := item.Creator
		if author == "" {
			author = item.Author
		}
		parsed.Items = append(parsed.Items, core.FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Author:      author,
			Published:   parseFeedDate(item.PubDate),
			GUID:        item.GUID,
		})
	}
	return parsed
}

func parseAtom(atom Atom) *ParsedFeed {
	parsed := &ParsedFeed{
		Title:       atom.Title,
		Description: atom.Subtitle,
	}
	for _, entry := range atom.Entries {
		var link string
		for _, l := range entry.Link {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}
		description := entry.Summary
		if description == "" {
			description = entry.Content
		}
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		parsed.Items = append(parsed.Items, core.FeedItem{
			Title:       entry.Title,
			Link:        link,
			Description: description,
			Author:      entry.Author.Name,
			Published:   parseFeedDate(published),
			GUID:        entry.ID,
		})
	}
	return parsed
}

// parseFeedDate parses the date formats seen in the wild across RSS and
// Atom feeds. Unparseable dates come back as the zero time.
func parseFeedDate(dateStr string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339,
		time.RFC1123,
		time.RFC1123Z,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
