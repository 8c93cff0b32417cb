// Package trends implements the trend detection engine: keyword candidates
// extracted from a user's content are enriched with an external popularity
// signal and a mention-growth velocity, combined into a composite score,
// ranked, and upserted as per-owner trend records.
package trends

import (
	"context"
	"currents/internal/core"
	"currents/internal/keywords"
	"currents/internal/logger"
	"currents/internal/persistence"
	"currents/internal/signal"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Options configure a Detector.
type Options struct {
	MaxTrends    int    // Trends kept per detection run (default 10)
	MinMentions  int    // Minimum distinct mentions per candidate (default 2)
	LookbackDays int    // Extraction and top-trends window (default 7)
	RecentDays   int    // Recent velocity sub-window (default 3)
	ListingDays  int    // Window for general trend listing (default 30)
	MaxLookups   int    // Keywords enriched with the external signal per run (default 20)
	Scorer       Scorer // Score weights; the zero value means the standard weights
}

// DefaultOptions returns the standard detection limits.
func DefaultOptions() Options {
	return Options{MaxTrends: 10, MinMentions: 2, LookbackDays: 7, RecentDays: 3, ListingDays: 30, MaxLookups: 20, Scorer: NewScorer()}
}

func (o *Options) fillDefaults() {
	def := DefaultOptions()
	if o.MaxTrends <= 0 {
		o.MaxTrends = def.MaxTrends
	}
	if o.MinMentions <= 0 {
		o.MinMentions = def.MinMentions
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = def.LookbackDays
	}
	if o.RecentDays <= 0 || o.RecentDays >= o.LookbackDays {
		o.RecentDays = def.RecentDays
	}
	if o.ListingDays <= 0 {
		o.ListingDays = def.ListingDays
	}
	if o.MaxLookups <= 0 {
		o.MaxLookups = def.MaxLookups
	}
	if o.Scorer == (Scorer{}) {
		o.Scorer = def.Scorer
	}
}

// Detected is one ranked trend candidate before persistence.
type Detected struct {
	Keyword           string          // The trending keyword
	Score             float64         // Composite score, 0-100
	ExternalSignal    signal.Interest // External popularity with provenance
	ContentMentions   int             // Distinct content items mentioning the keyword
	Velocity          float64         // Signed mention growth rate
	RelatedContentIDs []string        // Content items that drove the trend
}

// Detector orchestrates a detection run: extract, enrich, score, rank,
// persist. Each run is sequential and owner-scoped; concurrent runs for
// different owners share nothing but the database.
type Detector struct {
	db        persistence.Database
	extractor *keywords.Extractor
	interest  *signal.Service
	estimator *Estimator
	scorer    Scorer
	opts      Options
	log       *slog.Logger
}

// NewDetector wires a detector from its collaborator components.
func NewDetector(db persistence.Database, interest *signal.Service, opts Options) *Detector {
	opts.fillDefaults()
	return &Detector{
		db:        db,
		extractor: keywords.NewExtractor(db.Content()),
		interest:  interest,
		estimator: NewEstimator(db.Content(), opts.RecentDays, opts.LookbackDays),
		scorer:    opts.Scorer,
		opts:      opts,
		log:       logger.Get(),
	}
}

// Detect finds the owner's top trends from their recent content. The only
// hard failure is the initial content query; enrichment and velocity
// degrade to zeros per keyword. An owner with no candidate keywords gets
// an empty result, not an error.
func (d *Detector) Detect(ctx context.Context, owner string) ([]Detected, error) {
	d.log.Info("Detecting trends", "owner", owner)

	candidates, err := d.extractor.ExtractFromContent(ctx, owner, d.opts.LookbackDays, d.opts.MinMentions)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		d.log.Info("No trending keywords found", "owner", owner)
		return nil, nil
	}

	// Keep twice the detection cap so ranking has room, and bound the
	// external lookups below that to cap API cost.
	if limit := 2 * d.opts.MaxTrends; len(candidates) > limit {
		candidates = candidates[:limit]
	}
	lookups := len(candidates)
	if lookups > d.opts.MaxLookups {
		lookups = d.opts.MaxLookups
	}
	keywordBatch := make([]string, 0, lookups)
	for _, c := range candidates[:lookups] {
		keywordBatch = append(keywordBatch, c.Keyword)
	}
	interests := d.interest.GetInterest(ctx, keywordBatch)

	detected := make([]Detected, 0, len(candidates))
	for _, candidate := range candidates {
		ext, ok := interests[candidate.Keyword]
		if !ok {
			ext = signal.Interest{Score: 0, Origin: signal.OriginMissing}
		}

		velocity, err := d.estimator.Velocity(ctx, owner, candidate.Keyword)
		if err != nil {
			d.log.Warn("Velocity estimation failed, using zero",
				"owner", owner, "keyword", candidate.Keyword, "error", err.Error())
			velocity = 0
		}

		detected = append(detected, Detected{
			Keyword:           candidate.Keyword,
			Score:             d.scorer.Score(candidate.MentionCount, ext.Score, velocity),
			ExternalSignal:    ext,
			ContentMentions:   candidate.MentionCount,
			Velocity:          velocity,
			RelatedContentIDs: candidate.ContentIDs,
		})
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Score > detected[j].Score
	})
	if len(detected) > d.opts.MaxTrends {
		detected = detected[:d.opts.MaxTrends]
	}

	d.log.Info("Detected trends", "owner", owner, "count", len(detected))
	return detected, nil
}

// Save upserts the detected trends for the owner and returns how many were
// written. A failed upsert is logged and skipped; one bad keyword does not
// abort the batch.
func (d *Detector) Save(ctx context.Context, owner string, detected []Detected) int {
	if len(detected) == 0 {
		return 0
	}

	detectedAt := time.Now().UTC()
	saved := 0
	for _, t := range detected {
		ext := t.ExternalSignal.Score
		velocity := t.Velocity
		record := &core.TrendRecord{
			ID:                uuid.NewString(),
			Owner:             owner,
			Keyword:           t.Keyword,
			Score:             t.Score,
			ExternalSignal:    &ext,
			ContentMentions:   t.ContentMentions,
			Velocity:          &velocity,
			RelatedContentIDs: t.RelatedContentIDs,
			DetectedAt:        detectedAt,
		}
		if err := d.db.Trends().Upsert(ctx, record); err != nil {
			d.log.Error("Failed to save trend", "owner", owner, "keyword", t.Keyword, "error", err.Error())
			continue
		}
		saved++
	}

	d.log.Info("Saved trends", "owner", owner, "saved", saved)
	return saved
}

// DetectAndSave runs a full detection cycle and reports a summary. Only
// the extraction hard failure is returned as an error; everything else
// degrades inside the run.
func (d *Detector) DetectAndSave(ctx context.Context, owner string) (core.DetectionSummary, error) {
	summary := core.DetectionSummary{Top3: []core.TrendHighlight{}}

	detected, err := d.Detect(ctx, owner)
	if err != nil {
		return summary, err
	}
	if len(detected) == 0 {
		return summary, nil
	}

	summary.Detected = len(detected)
	summary.Saved = d.Save(ctx, owner, detected)

	top, err := d.TopTrends(ctx, owner, 3)
	if err != nil {
		d.log.Warn("Failed to read back top trends", "owner", owner, "error", err.Error())
		return summary, nil
	}
	for _, t := range top {
		summary.Top3 = append(summary.Top3, core.TrendHighlight{Keyword: t.Keyword, Score: t.Score})
	}
	return summary, nil
}

// TopTrends returns the owner's highest scored trends detected within the
// lookback window.
func (d *Detector) TopTrends(ctx context.Context, owner string, limit int) ([]core.TrendRecord, error) {
	if limit <= 0 {
		limit = 3
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -d.opts.LookbackDays)
	return d.db.Trends().ListDetectedSince(ctx, owner, cutoff, persistence.ListOptions{Limit: limit})
}

// List returns the owner's trends detected within the listing window,
// highest scored first, with pagination.
func (d *Detector) List(ctx context.Context, owner string, limit, offset int) ([]core.TrendRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -d.opts.ListingDays)
	return d.db.Trends().ListDetectedSince(ctx, owner, cutoff, persistence.ListOptions{Limit: limit, Offset: offset})
}

// Get returns the owner's trend record for a keyword, or
// persistence.ErrNotFound when the keyword has never trended.
func (d *Detector) Get(ctx context.Context, owner, keyword string) (*core.TrendRecord, error) {
	return d.db.Trends().GetByKeyword(ctx, owner, keyword)
}

// Delete removes one of the owner's trends. Explicit deletion is the only
// removal path; detection never deletes records.
func (d *Detector) Delete(ctx context.Context, owner, id string) error {
	return d.db.Trends().Delete(ctx, owner, id)
}

// Stats aggregates the owner's trend activity: totals, the active subset
// from the lookback window, its average score and top keywords.
func (d *Detector) Stats(ctx context.Context, owner string) (*core.TrendStats, error) {
	all, err := d.db.Trends().ListAll(ctx, owner)
	if err != nil {
		return nil, err
	}

	stats := &core.TrendStats{TotalTrends: len(all), TopKeywords: []string{}}
	cutoff := time.Now().UTC().AddDate(0, 0, -d.opts.LookbackDays)

	var active []core.TrendRecord
	for _, t := range all {
		if !t.DetectedAt.Before(cutoff) {
			active = append(active, t)
		}
	}
	stats.ActiveTrends = len(active)
	if len(active) == 0 {
		return stats, nil
	}

	var sum float64
	for _, t := range active {
		sum += t.Score
	}
	stats.AvgScore = round2(sum / float64(len(active)))

	sort.SliceStable(active, func(i, j int) bool { return active[i].Score > active[j].Score })
	for i := 0; i < len(active) && i < 5; i++ {
		stats.TopKeywords = append(stats.TopKeywords, active[i].Keyword)
	}
	return stats, nil
}
