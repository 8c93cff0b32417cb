package core

import (
	"testing"
	"time"
)

func validContentItem() ContentItem {
	return ContentItem{
		ID:        "c1",
		Owner:     "alice",
		Type:      ContentTypeArticle,
		Title:     "Title",
		Body:      "Body",
		URL:       "https://example.com/c1",
		CreatedAt: time.Now().UTC(),
	}
}

func TestContentTypeValid(t *testing.T) {
	for _, ct := range []ContentType{ContentTypeTweet, ContentTypeVideo, ContentTypeArticle, ContentTypeNewsletter} {
		if !ct.Valid() {
			t.Errorf("Expected %q to be valid", ct)
		}
	}
	if ContentType("podcast").Valid() {
		t.Error("Expected unknown type to be invalid")
	}
}

func TestContentItemValidate(t *testing.T) {
	item := validContentItem()
	if err := item.Validate(); err != nil {
		t.Errorf("Expected valid item, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*ContentItem)
	}{
		{"missing id", func(c *ContentItem) { c.ID = "" }},
		{"missing owner", func(c *ContentItem) { c.Owner = "" }},
		{"bad type", func(c *ContentItem) { c.Type = "podcast" }},
		{"missing url", func(c *ContentItem) { c.URL = "" }},
	}
	for _, tc := range cases {
		item := validContentItem()
		tc.mutate(&item)
		if err := item.Validate(); err == nil {
			t.Errorf("Expected error for %s", tc.name)
		}
	}
}

func TestContentItemText(t *testing.T) {
	item := validContentItem()
	if got := item.Text(); got != "Title Body" {
		t.Errorf("Expected joined text, got %q", got)
	}

	item.Body = ""
	if got := item.Text(); got != "Title" {
		t.Errorf("Expected title only, got %q", got)
	}

	item.Title = ""
	item.Body = "Body"
	if got := item.Text(); got != "Body" {
		t.Errorf("Expected body only, got %q", got)
	}
}

func TestTrendRecordValidate(t *testing.T) {
	record := TrendRecord{
		ID:         "t1",
		Owner:      "alice",
		Keyword:    "golang",
		Score:      42,
		DetectedAt: time.Now().UTC(),
	}
	if err := record.Validate(); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*TrendRecord)
	}{
		{"missing id", func(r *TrendRecord) { r.ID = "" }},
		{"missing owner", func(r *TrendRecord) { r.Owner = "" }},
		{"missing keyword", func(r *TrendRecord) { r.Keyword = "" }},
		{"score below range", func(r *TrendRecord) { r.Score = -1 }},
		{"score above range", func(r *TrendRecord) { r.Score = 100.01 }},
		{"negative mentions", func(r *TrendRecord) { r.ContentMentions = -1 }},
	}
	for _, tc := range cases {
		r := record
		tc.mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("Expected error for %s", tc.name)
		}
	}
}
