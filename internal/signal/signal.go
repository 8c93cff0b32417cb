// Package signal fetches normalized 0-100 popularity scores for keywords
// from an external trends index, batching lookups to respect the provider's
// limits and degrading to zero scores when the provider fails.
package signal

import (
	"context"
	"currents/internal/logger"
	"log/slog"
	"time"
)

// Origin records where an interest score came from, so a genuine zero can
// be told apart from a failed or empty lookup.
type Origin string

const (
	// OriginObserved means the provider returned data for the keyword.
	OriginObserved Origin = "observed"
	// OriginMissing means the provider answered but had no data for the
	// keyword. Indistinguishable from "no interest" at the score level.
	OriginMissing Origin = "missing"
	// OriginFailed means the lookup for the keyword's batch failed.
	OriginFailed Origin = "failed"
	// OriginCached means the score was served from the local cache.
	OriginCached Origin = "cached"
)

// Interest is one keyword's popularity score together with its origin.
type Interest struct {
	Score  float64 `json:"score"`  // Normalized popularity, 0-100
	Origin Origin  `json:"origin"` // Where the score came from
}

// Provider looks up interest scores for a single batch of keywords.
// Implementations may not accept more than five keywords per call.
type Provider interface {
	// BatchLookup returns a score for each keyword the index has data
	// for; keywords without data are absent from the result. An error
	// means the whole batch failed.
	BatchLookup(ctx context.Context, keywords []string, timeframe string) (map[string]float64, error)
}

// Cache stores interest scores between detection runs so repeated lookups
// do not re-hit the rate-limited provider.
type Cache interface {
	// Get returns a fresh cached score for the keyword, if any.
	Get(keyword, timeframe string) (float64, bool)
	// Put stores a score for the keyword.
	Put(keyword, timeframe string, score float64) error
}

// Options configure a Service.
type Options struct {
	BatchSize  int           // Keywords per provider call, capped at 5
	BatchDelay time.Duration // Pause between sequential batches
	Timeframe  string        // Default lookup timeframe
}

// DefaultOptions mirror the provider's documented limits.
func DefaultOptions() Options {
	return Options{BatchSize: 5, BatchDelay: 2 * time.Second, Timeframe: "now 7-d"}
}

// Service batches keyword lookups against a Provider, with an optional
// cache in front.
type Service struct {
	provider Provider
	cache    Cache
	opts     Options
	log      *slog.Logger

	// sleep is swappable in tests
	sleep func(time.Duration)
}

// NewService creates a batching interest service. cache may be nil.
func NewService(provider Provider, cache Cache, opts Options) *Service {
	def := DefaultOptions()
	if opts.BatchSize <= 0 || opts.BatchSize > def.BatchSize {
		opts.BatchSize = def.BatchSize
	}
	if opts.Timeframe == "" {
		opts.Timeframe = def.Timeframe
	}
	return &Service{
		provider: provider,
		cache:    cache,
		opts:     opts,
		log:      logger.Get(),
		sleep:    time.Sleep,
	}
}

// GetInterest returns an Interest for every requested keyword. Failures are
// isolated per batch: a failed batch yields zero scores tagged
// OriginFailed for its keywords, never an error for the whole call. The
// inter-batch delay is a plain blocking wait to respect the provider's
// rate limit.
func (s *Service) GetInterest(ctx context.Context, keywords []string) map[string]Interest {
	results := make(map[string]Interest, len(keywords))
	if len(keywords) == 0 {
		return results
	}

	// Serve what we can from the cache first.
	var pending []string
	for _, kw := range keywords {
		if s.cache != nil {
			if score, ok := s.cache.Get(kw, s.opts.Timeframe); ok {
				results[kw] = Interest{Score: score, Origin: OriginCached}
				continue
			}
		}
		pending = append(pending, kw)
	}

	for start := 0; start < len(pending); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if start > 0 && s.opts.BatchDelay > 0 {
			s.sleep(s.opts.BatchDelay)
		}

		scores, err := s.provider.BatchLookup(ctx, batch, s.opts.Timeframe)
		if err != nil {
			s.log.Warn("Interest lookup failed for batch, degrading to zero",
				"keywords", batch, "error", err.Error())
			for _, kw := range batch {
				results[kw] = Interest{Score: 0, Origin: OriginFailed}
			}
			continue
		}

		for _, kw := range batch {
			score, ok := scores[kw]
			if !ok {
				results[kw] = Interest{Score: 0, Origin: OriginMissing}
				continue
			}
			results[kw] = Interest{Score: score, Origin: OriginObserved}
			if s.cache != nil {
				if err := s.cache.Put(kw, s.opts.Timeframe, score); err != nil {
					s.log.Warn("Failed to cache interest score", "keyword", kw, "error", err.Error())
				}
			}
		}
	}

	return results
}
