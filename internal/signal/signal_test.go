package signal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// MockProvider serves canned scores and records batch shapes.

type MockProvider struct {
	scores      map[string]float64
	failBatches map[int]bool // Batch index -> fail
	batches     [][]string
}

func (m *MockProvider) BatchLookup(ctx context.Context, keywords []string, timeframe string) (map[string]float64, error) {
	idx := len(m.batches)
	m.batches = append(m.batches, keywords)
	if m.failBatches[idx] {
		return nil, errors.New("mock batch error")
	}
	out := make(map[string]float64)
	for _, kw := range keywords {
		if score, ok := m.scores[kw]; ok {
			out[kw] = score
		}
	}
	return out, nil
}

type MockCache struct {
	entries map[string]float64
	puts    int
}

func (m *MockCache) Get(keyword, timeframe string) (float64, bool) {
	score, ok := m.entries[keyword+"|"+timeframe]
	return score, ok
}

func (m *MockCache) Put(keyword, timeframe string, score float64) error {
	if m.entries == nil {
		m.entries = map[string]float64{}
	}
	m.entries[keyword+"|"+timeframe] = score
	m.puts++
	return nil
}

func newTestService(provider Provider, cache Cache, opts Options) (*Service, *int) {
	svc := NewService(provider, cache, opts)
	sleeps := 0
	svc.sleep = func(time.Duration) { sleeps++ }
	return svc, &sleeps
}

func TestGetInterestBatching(t *testing.T) {
	var kws []string
	scores := map[string]float64{}
	for i := 0; i < 7; i++ {
		kw := fmt.Sprintf("kw%d", i)
		kws = append(kws, kw)
		scores[kw] = float64(i * 10)
	}

	provider := &MockProvider{scores: scores}
	svc, sleeps := newTestService(provider, nil, Options{BatchSize: 5, BatchDelay: 2 * time.Second})

	results := svc.GetInterest(context.Background(), kws)

	if len(provider.batches) != 2 {
		t.Fatalf("Expected 2 batches for 7 keywords, got %d", len(provider.batches))
	}
	if len(provider.batches[0]) != 5 || len(provider.batches[1]) != 2 {
		t.Errorf("Expected batch sizes 5 and 2, got %d and %d",
			len(provider.batches[0]), len(provider.batches[1]))
	}
	if *sleeps != 1 {
		t.Errorf("Expected one inter-batch delay, got %d", *sleeps)
	}
	for _, kw := range kws {
		interest, ok := results[kw]
		if !ok {
			t.Fatalf("Missing result for %q", kw)
		}
		if interest.Origin != OriginObserved {
			t.Errorf("Expected observed origin for %q, got %q", kw, interest.Origin)
		}
		if interest.Score != scores[kw] {
			t.Errorf("Expected score %.1f for %q, got %.1f", scores[kw], kw, interest.Score)
		}
	}
}

func TestGetInterestBatchSizeCapped(t *testing.T) {
	provider := &MockProvider{scores: map[string]float64{}}
	svc, _ := newTestService(provider, nil, Options{BatchSize: 50})

	var kws []string
	for i := 0; i < 6; i++ {
		kws = append(kws, fmt.Sprintf("kw%d", i))
	}
	svc.GetInterest(context.Background(), kws)

	for i, batch := range provider.batches {
		if len(batch) > 5 {
			t.Errorf("Batch %d exceeds provider limit: %d keywords", i, len(batch))
		}
	}
}

func TestGetInterestFailureIsolatedPerBatch(t *testing.T) {
	var kws []string
	scores := map[string]float64{}
	for i := 0; i < 7; i++ {
		kw := fmt.Sprintf("kw%d", i)
		kws = append(kws, kw)
		scores[kw] = 50
	}

	provider := &MockProvider{scores: scores, failBatches: map[int]bool{0: true}}
	svc, _ := newTestService(provider, nil, Options{BatchSize: 5})

	results := svc.GetInterest(context.Background(), kws)

	// First batch degrades to zero, second batch still succeeds. A failed
	// lookup and a genuine zero carry the same score; the origin is the
	// only way to tell them apart.
	for i, kw := range kws {
		interest := results[kw]
		if i < 5 {
			if interest.Origin != OriginFailed {
				t.Errorf("Expected failed origin for %q, got %q", kw, interest.Origin)
			}
			if interest.Score != 0 {
				t.Errorf("Expected zero score for failed %q, got %.1f", kw, interest.Score)
			}
		} else {
			if interest.Origin != OriginObserved {
				t.Errorf("Expected observed origin for %q, got %q", kw, interest.Origin)
			}
		}
	}
}

func TestGetInterestMissingKeyword(t *testing.T) {
	provider := &MockProvider{scores: map[string]float64{"known": 70}}
	svc, _ := newTestService(provider, nil, Options{})

	results := svc.GetInterest(context.Background(), []string{"known", "obscure"})

	if results["known"].Origin != OriginObserved {
		t.Errorf("Expected observed origin for known keyword, got %q", results["known"].Origin)
	}
	if results["obscure"].Origin != OriginMissing {
		t.Errorf("Expected missing origin for unknown keyword, got %q", results["obscure"].Origin)
	}
	if results["obscure"].Score != 0 {
		t.Errorf("Expected zero score for unknown keyword, got %.1f", results["obscure"].Score)
	}
}

func TestGetInterestServesFromCache(t *testing.T) {
	cache := &MockCache{}
	_ = cache.Put("hot", "now 7-d", 88)
	cache.puts = 0

	provider := &MockProvider{scores: map[string]float64{"cold": 20}}
	svc, _ := newTestService(provider, cache, Options{Timeframe: "now 7-d"})

	results := svc.GetInterest(context.Background(), []string{"hot", "cold"})

	if results["hot"].Origin != OriginCached {
		t.Errorf("Expected cached origin for hot, got %q", results["hot"].Origin)
	}
	if results["hot"].Score != 88 {
		t.Errorf("Expected cached score 88, got %.1f", results["hot"].Score)
	}
	for _, batch := range provider.batches {
		for _, kw := range batch {
			if kw == "hot" {
				t.Error("Expected cached keyword to skip the provider")
			}
		}
	}
	if cache.puts != 1 {
		t.Errorf("Expected one cache write for the fetched keyword, got %d", cache.puts)
	}
}

func TestGetInterestEmptyInput(t *testing.T) {
	provider := &MockProvider{}
	svc, _ := newTestService(provider, nil, Options{})

	results := svc.GetInterest(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected empty results for no keywords, got %v", results)
	}
	if len(provider.batches) != 0 {
		t.Errorf("Expected no provider calls for no keywords, got %d", len(provider.batches))
	}
}
