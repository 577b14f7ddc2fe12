package exam_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/examdrill/backend/internal/domain/exam"
)

func pool(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func TestSample_NeverExceedsPool(t *testing.T) {
	got := exam.Sample(pool(3), 10, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 ids (all available), got %d", len(got))
	}
	assertDistinctSubset(t, got, pool(3))
}

func TestSample_Truncates(t *testing.T) {
	got := exam.Sample(pool(100), 20, rand.New(rand.NewSource(1)))
	if len(got) != 20 {
		t.Fatalf("expected 20 ids, got %d", len(got))
	}
	assertDistinctSubset(t, got, pool(100))
}

func TestSample_EmptyCases(t *testing.T) {
	if got := exam.Sample(nil, 5, nil); len(got) != 0 {
		t.Errorf("expected empty exam for empty pool, got %v", got)
	}
	if got := exam.Sample(pool(5), 0, nil); len(got) != 0 {
		t.Errorf("expected empty exam for zero count, got %v", got)
	}
}

func TestSample_DoesNotMutatePool(t *testing.T) {
	p := pool(10)
	exam.Sample(p, 5, rand.New(rand.NewSource(3)))
	for i, v := range p {
		if v != int64(i+1) {
			t.Fatalf("pool was modified: %v", p)
		}
	}
}

func TestSample_Randomized(t *testing.T) {
	p := pool(20)
	first := exam.Sample(p, 20, nil)

	// Statistically almost certain with 20 items.
	for i := 0; i < 10; i++ {
		if !sameOrder(first, exam.Sample(p, 20, nil)) {
			return
		}
	}
	t.Error("expected sampled order to vary across calls")
}

func TestSample_EveryItemReachable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	hits := make(map[int64]int)
	for i := 0; i < 2000; i++ {
		for _, v := range exam.Sample(pool(10), 1, rng) {
			hits[v]++
		}
	}
	for _, v := range pool(10) {
		if hits[v] == 0 {
			t.Errorf("id %d never sampled", v)
		}
	}
}

func TestShuffle_KeepsAllIDs(t *testing.T) {
	p := pool(15)
	got := exam.Shuffle(p, rand.New(rand.NewSource(9)))
	if len(got) != len(p) {
		t.Fatalf("expected %d ids, got %d", len(p), len(got))
	}
	assertDistinctSubset(t, got, p)
}

func TestDedup(t *testing.T) {
	got := exam.Dedup([]int64{3, 1, 3, 2, 1})
	if !sameOrder(got, []int64{3, 1, 2}) {
		t.Errorf("expected [3 1 2], got %v", got)
	}
}

func TestNewState(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st := exam.NewState("", []int64{4, 2}, []string{"미분"}, time.Hour, now)

	if st.Name != exam.DefaultName {
		t.Errorf("expected default name, got %q", st.Name)
	}
	if st.Token == "" {
		t.Error("expected a token")
	}
	if !st.Contains(2) || st.Contains(3) {
		t.Error("unexpected membership result")
	}
	if st.Expired(now.Add(59 * time.Minute)) {
		t.Error("expected state to be live before ttl")
	}
	if !st.Expired(now.Add(time.Hour)) {
		t.Error("expected state to expire at ttl")
	}
}

func TestReviewNames(t *testing.T) {
	if got := exam.SessionReviewName(7); got != "Exam #7 wrong-answer review" {
		t.Errorf("unexpected name %q", got)
	}
	if got := exam.MultiSessionReviewName([]int64{1, 4}); got != "Exams #1, #4 wrong-answer review" {
		t.Errorf("unexpected name %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := exam.DefaultConfig()
	if cfg.Count != 5 {
		t.Errorf("expected 5 questions by default, got %d", cfg.Count)
	}
	if cfg.Topics != nil {
		t.Error("expected no topic restriction by default")
	}
}

func assertDistinctSubset(t *testing.T, got, from []int64) {
	t.Helper()
	allowed := make(map[int64]bool)
	for _, v := range from {
		allowed[v] = true
	}
	seen := make(map[int64]bool)
	for _, v := range got {
		if !allowed[v] {
			t.Errorf("id %d not in pool", v)
		}
		if seen[v] {
			t.Errorf("id %d drawn twice", v)
		}
		seen[v] = true
	}
}

func sameOrder(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
