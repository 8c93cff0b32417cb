package trends

import (
	"context"
	"currents/internal/core"
	"currents/internal/logger"
	"currents/internal/persistence"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Estimator computes a keyword's mention growth rate by comparing the
// recent sub-window of the lookback period against the prior sub-window.
// With the defaults that is the last 3 days against days 4-7.
type Estimator struct {
	content      persistence.ContentRepository
	recentDays   int
	lookbackDays int
	log          *slog.Logger

	// windows caches the two content snapshots per owner, so estimating
	// N keywords in one detection run costs two queries instead of 2N.
	windows *gocache.Cache
}

// NewEstimator creates a velocity estimator over the given content
// repository.
func NewEstimator(content persistence.ContentRepository, recentDays, lookbackDays int) *Estimator {
	if recentDays <= 0 {
		recentDays = 3
	}
	if lookbackDays <= recentDays {
		lookbackDays = 7
	}
	return &Estimator{
		content:      content,
		recentDays:   recentDays,
		lookbackDays: lookbackDays,
		log:          logger.Get(),
		windows:      gocache.New(time.Minute, 5*time.Minute),
	}
}

// Velocity returns the keyword's signed growth rate, rounded to two
// decimals. With no prior-window baseline, a keyword that appears in the
// recent window gets its raw recent count as velocity; the scorer's
// normalization caps it downstream. A query failure is returned to the
// caller, which degrades to zero.
func (e *Estimator) Velocity(ctx context.Context, owner, keyword string) (float64, error) {
	recent, prior, err := e.windowsFor(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to load velocity windows for owner %s: %w", owner, err)
	}

	needle := strings.ToLower(keyword)
	recentCount := countMentions(recent, needle)
	priorCount := countMentions(prior, needle)

	var velocity float64
	switch {
	case priorCount == 0 && recentCount > 0:
		velocity = float64(recentCount)
	case priorCount == 0:
		velocity = 0
	default:
		velocity = float64(recentCount-priorCount) / float64(priorCount)
	}
	return round2(velocity), nil
}

// windowsFor returns the owner's recent and prior content snapshots,
// served from the per-run cache when possible.
func (e *Estimator) windowsFor(ctx context.Context, owner string) (recent, prior []core.ContentItem, err error) {
	type snapshot struct {
		recent []core.ContentItem
		prior  []core.ContentItem
	}

	key := "windows:" + owner
	if cached, ok := e.windows.Get(key); ok {
		snap := cached.(snapshot)
		return snap.recent, snap.prior, nil
	}

	now := time.Now().UTC()
	recentCutoff := now.AddDate(0, 0, -e.recentDays)
	priorCutoff := now.AddDate(0, 0, -e.lookbackDays)

	recent, err = e.content.ListSince(ctx, owner, recentCutoff)
	if err != nil {
		return nil, nil, err
	}
	prior, err = e.content.ListBetween(ctx, owner, priorCutoff, recentCutoff)
	if err != nil {
		return nil, nil, err
	}

	e.windows.SetDefault(key, snapshot{recent: recent, prior: prior})
	return recent, prior, nil
}

// countMentions counts items whose text contains the keyword,
// case-insensitively.
func countMentions(items []core.ContentItem, needle string) int {
	count := 0
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Text()), needle) {
			count++
		}
	}
	return count
}
