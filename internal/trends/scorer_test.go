package trends

import "testing"

func TestScoreZeroInputs(t *testing.T) {
	scorer := NewScorer()
	if got := scorer.Score(0, 0, 0); got != 0 {
		t.Errorf("Expected zero score for zero inputs, got %.2f", got)
	}
}

func TestScoreSaturatedInputs(t *testing.T) {
	scorer := NewScorer()
	if got := scorer.Score(50, 100, 5); got != 100 {
		t.Errorf("Expected 100 for fully saturated inputs, got %.2f", got)
	}
}

func TestScoreMentionsSaturate(t *testing.T) {
	scorer := NewScorer()
	// 500 mentions score the same as 50: the mention term caps at 100.
	if got, want := scorer.Score(500, 0, 0), scorer.Score(50, 0, 0); got != want {
		t.Errorf("Expected mention term to saturate: %.2f vs %.2f", got, want)
	}
}

func TestScoreMentionsOnly(t *testing.T) {
	scorer := NewScorer()
	// 25/50 * 100 * 0.4 = 20
	if got := scorer.Score(25, 0, 0); got != 20 {
		t.Errorf("Expected 20.00, got %.2f", got)
	}
}

func TestScoreVelocityMagnitude(t *testing.T) {
	scorer := NewScorer()
	// A sharp decline scores the same as a sharp rise.
	rise := scorer.Score(0, 0, 5)
	fall := scorer.Score(0, 0, -5)
	if rise != fall {
		t.Errorf("Expected symmetric velocity contribution, got %.2f vs %.2f", rise, fall)
	}
	if rise != 20 {
		t.Errorf("Expected 20.00 for saturated velocity, got %.2f", rise)
	}
}

func TestScoreRounding(t *testing.T) {
	scorer := NewScorer()
	// 3/50*100*0.4 + 33.33*0.4 + 0.1/5*100*0.2 = 2.4 + 13.332 + 0.4
	if got := scorer.Score(3, 33.33, 0.1); got != 16.13 {
		t.Errorf("Expected 16.13, got %.2f", got)
	}
}
