package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.Put("golang", "now 7-d", 72.5); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}

	score, ok := s.Get("golang", "now 7-d")
	if !ok {
		t.Fatal("Expected cached score to be found")
	}
	if score != 72.5 {
		t.Errorf("Expected score 72.5, got %.1f", score)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if _, ok := s.Get("unknown", "now 7-d"); ok {
		t.Error("Expected miss for unknown keyword")
	}
}

func TestGetKeyedByTimeframe(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.Put("golang", "now 7-d", 72.5); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}
	if _, ok := s.Get("golang", "today 12-m"); ok {
		t.Error("Expected miss for a different timeframe")
	}
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.Put("golang", "now 7-d", 10); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}
	if err := s.Put("golang", "now 7-d", 90); err != nil {
		t.Fatalf("Failed to replace score: %v", err)
	}

	score, ok := s.Get("golang", "now 7-d")
	if !ok || score != 90 {
		t.Errorf("Expected replaced score 90, got %.1f (found=%v)", score, ok)
	}
}

func TestExpiredEntriesAreMisses(t *testing.T) {
	s := newTestStore(t, time.Nanosecond)

	if err := s.Put("golang", "now 7-d", 72.5); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok := s.Get("golang", "now 7-d"); ok {
		t.Error("Expected expired entry to be a miss")
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.Put("golang", "now 7-d", 10); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}
	if err := s.Put("rust", "now 7-d", 20); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}

	fresh, total, err := s.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if fresh != 2 || total != 2 {
		t.Errorf("Expected 2 fresh / 2 total, got %d / %d", fresh, total)
	}
}

func TestCleanupRemovesOnlyExpired(t *testing.T) {
	s := newTestStore(t, time.Nanosecond)

	if err := s.Put("stale", "now 7-d", 10); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}

	_, total, err := s.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected expired entry removed, %d remain", total)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, time.Hour)

	if err := s.Put("golang", "now 7-d", 10); err != nil {
		t.Fatalf("Failed to put score: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}

	_, total, err := s.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected empty cache after clear, %d remain", total)
	}
}
