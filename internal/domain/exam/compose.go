package exam

import "math/rand"

// ComposeConfig holds what the taker asked for when starting a fresh exam.
type ComposeConfig struct {
	Topics []string // empty = every topic
	Count  int
	Name   string
}

// DefaultConfig returns an unrestricted five-question exam.
func DefaultConfig() ComposeConfig {
	return ComposeConfig{
		Topics: nil,
		Count:  5,
		Name:   DefaultName,
	}
}

// Sample draws min(count, len(pool)) ids uniformly without replacement.
// The result is in random order. A nil rng uses the shared source.
func Sample(pool []int64, count int, rng *rand.Rand) []int64 {
	if count <= 0 || len(pool) == 0 {
		return []int64{}
	}
	if count > len(pool) {
		count = len(pool)
	}

	picked := make([]int64, len(pool))
	copy(picked, pool)

	// Partial Fisher-Yates: after step i, picked[:i+1] is a uniform sample.
	for i := 0; i < count; i++ {
		j := i + intn(rng, len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:count]
}

// Shuffle returns a new slice holding ids in random order.
func Shuffle(ids []int64, rng *rand.Rand) []int64 {
	shuffled := make([]int64, len(ids))
	copy(shuffled, ids)

	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng != nil {
		rng.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}
	return shuffled
}

// Dedup drops repeated ids, keeping the first occurrence.
func Dedup(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func intn(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.Intn(n)
	}
	return rand.Intn(n)
}
