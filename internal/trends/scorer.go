package trends

import "math"

// Scorer combines content mentions, the external signal and velocity into
// one composite 0-100 score. Scoring is a pure function: no I/O, no
// failure modes.
type Scorer struct {
	MentionWeight    float64 // Weight of normalized mentions (default 0.4)
	SignalWeight     float64 // Weight of the external signal (default 0.4)
	VelocityWeight   float64 // Weight of normalized velocity (default 0.2)
	MentionSaturate  float64 // Mention count treated as a full signal (default 50)
	VelocitySaturate float64 // Velocity magnitude treated as a full signal (default 5)
}

// NewScorer returns a scorer with the standard weights.
func NewScorer() Scorer {
	return Scorer{
		MentionWeight:    0.4,
		SignalWeight:     0.4,
		VelocityWeight:   0.2,
		MentionSaturate:  50,
		VelocitySaturate: 5,
	}
}

// Score computes the composite trend score, rounded to two decimals.
// Velocity contributes by magnitude only: rapid decline counts as activity
// just like rapid growth, and the sign is preserved separately on the
// trend record.
func (s Scorer) Score(contentMentions int, externalSignal, velocity float64) float64 {
	normalizedMentions := math.Min(float64(contentMentions)/s.MentionSaturate*100, 100)
	normalizedVelocity := math.Min(math.Abs(velocity)/s.VelocitySaturate*100, 100)

	score := normalizedMentions*s.MentionWeight +
		externalSignal*s.SignalWeight +
		normalizedVelocity*s.VelocityWeight

	return round2(score)
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
