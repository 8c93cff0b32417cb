// Package keywords extracts ranked keyword candidates from raw text and
// from a user's recent content corpus.
package keywords

import (
	"context"
	"currents/internal/core"
	"currents/internal/logger"
	"currents/internal/persistence"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultMinLength is the minimum length for plain-word keywords.
	DefaultMinLength = 3
	// DefaultMaxKeywords caps the keywords returned per document.
	DefaultMaxKeywords = 20
	// DefaultMinMentions is the minimum distinct content mentions a
	// candidate needs to survive corpus extraction.
	DefaultMinMentions = 2
)

// urlPattern matches URLs so they are stripped before tokenization.
var urlPattern = regexp.MustCompile(`http\S+|www\.\S+`)

// tagPattern matches hashtags and @mentions.
var tagPattern = regexp.MustCompile(`[#@]\w+`)

// stopWords are common English words excluded from plain-word keywords.
// Hashtags and mentions bypass this filter.
var stopWords = map[string]struct{}{}

func init() {
	list := []string{
		"the", "be", "to", "of", "and", "a", "in", "that", "have", "i",
		"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
		"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
		"or", "an", "will", "my", "one", "all", "would", "there", "their",
		"what", "so", "up", "out", "if", "about", "who", "get", "which", "go",
		"me", "when", "make", "can", "like", "time", "no", "just", "him", "know",
		"take", "people", "into", "year", "your", "good", "some", "could", "them",
		"see", "other", "than", "then", "now", "look", "only", "come", "its", "over",
		"think", "also", "back", "after", "use", "two", "how", "our", "work", "first",
		"well", "way", "even", "new", "want", "because", "any", "these", "give", "day",
		"most", "us", "is", "was", "are", "been", "has", "had", "were", "said", "did",
		"having", "may", "should", "am", "being", "does", "doing",
	}
	for _, w := range list {
		stopWords[w] = struct{}{}
	}
}

// ExtractFromText extracts keywords from text by word frequency, most
// frequent first. Ties keep first-seen order. Empty text yields an empty
// result, never an error.
func ExtractFromText(text string, minLength, maxKeywords int) []string {
	if text == "" {
		return nil
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}

	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")

	tokenPattern, err := regexp.Compile(fmt.Sprintf(`#\w+|@\w+|\b[a-z]{%d,}\b`, minLength))
	if err != nil {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, word := range tokenPattern.FindAllString(text, -1) {
		if !strings.HasPrefix(word, "#") && !strings.HasPrefix(word, "@") {
			if _, stop := stopWords[word]; stop {
				continue
			}
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// Extractor extracts keyword candidates from a user's stored content.
type Extractor struct {
	content persistence.ContentRepository
	log     *slog.Logger
}

// NewExtractor creates an extractor reading from the given content
// repository.
func NewExtractor(content persistence.ContentRepository) *Extractor {
	return &Extractor{content: content, log: logger.Get()}
}

// ExtractFromContent scans the owner's content over the trailing window and
// returns candidates mentioned by at least minMentions distinct items,
// sorted by mention count descending. Extraction runs per item so every
// candidate keeps the IDs of the content that drove it.
//
// A content store failure is the one hard error in the pipeline: without
// content there is nothing to detect.
func (e *Extractor) ExtractFromContent(ctx context.Context, owner string, days, minMentions int) ([]core.KeywordCandidate, error) {
	if days <= 0 {
		days = 7
	}
	if minMentions <= 0 {
		minMentions = DefaultMinMentions
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	items, err := e.content.ListSince(ctx, owner, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query content for owner %s: %w", owner, err)
	}
	if len(items) == 0 {
		e.log.Info("No recent content found", "owner", owner, "days", days)
		return nil, nil
	}

	// keyword -> set of content IDs, plus first-seen order for stable ties
	mentions := make(map[string]map[string]struct{})
	var order []string
	for _, item := range items {
		for _, keyword := range ExtractFromText(item.Text(), DefaultMinLength, DefaultMaxKeywords) {
			ids, ok := mentions[keyword]
			if !ok {
				ids = make(map[string]struct{})
				mentions[keyword] = ids
				order = append(order, keyword)
			}
			ids[item.ID] = struct{}{}
		}
	}

	var candidates []core.KeywordCandidate
	for _, keyword := range order {
		ids := mentions[keyword]
		if len(ids) < minMentions {
			continue
		}
		contentIDs := make([]string, 0, len(ids))
		for id := range ids {
			contentIDs = append(contentIDs, id)
		}
		sort.Strings(contentIDs)
		candidates = append(candidates, core.KeywordCandidate{
			Keyword:      keyword,
			MentionCount: len(ids),
			ContentIDs:   contentIDs,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MentionCount > candidates[j].MentionCount
	})

	e.log.Info("Extracted trending keywords", "owner", owner, "count", len(candidates))
	return candidates, nil
}

// Suggestions returns up to 30 corpus keywords for the owner, most
// mentioned first.
func (e *Extractor) Suggestions(ctx context.Context, owner string, days int) ([]string, error) {
	candidates, err := e.ExtractFromContent(ctx, owner, days, DefaultMinMentions)
	if err != nil {
		return nil, err
	}
	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if len(suggestions) >= 30 {
			break
		}
		suggestions = append(suggestions, c.Keyword)
	}
	return suggestions, nil
}

// ExtractSocialTags returns the owner's top hashtags and @mentions from
// tweet content over the trailing window, 20 of each.
func (e *Extractor) ExtractSocialTags(ctx context.Context, owner string, days int) (*core.SocialTags, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	items, err := e.content.ListByType(ctx, owner, core.ContentTypeTweet, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query tweets for owner %s: %w", owner, err)
	}

	hashtags := make(map[string]int)
	mentions := make(map[string]int)
	var hashtagOrder, mentionOrder []string
	for _, item := range items {
		if item.Body == "" {
			continue
		}
		for _, tag := range tagPattern.FindAllString(strings.ToLower(item.Body), -1) {
			if strings.HasPrefix(tag, "#") {
				if hashtags[tag] == 0 {
					hashtagOrder = append(hashtagOrder, tag)
				}
				hashtags[tag]++
			} else {
				if mentions[tag] == 0 {
					mentionOrder = append(mentionOrder, tag)
				}
				mentions[tag]++
			}
		}
	}

	return &core.SocialTags{
		Hashtags: topTags(hashtags, hashtagOrder, 20),
		Mentions: topTags(mentions, mentionOrder, 20),
	}, nil
}

func topTags(counts map[string]int, order []string, limit int) []core.TagCount {
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	tags := make([]core.TagCount, 0, len(order))
	for _, tag := range order {
		tags = append(tags, core.TagCount{Tag: tag, Count: counts[tag]})
	}
	return tags
}
