// Package grader compares submitted choice sets with a question's answer key.
package grader

import "github.com/examdrill/backend/internal/domain/questionbank"

// ConfidenceUnset marks an answer submitted without a confidence rating.
const ConfidenceUnset = -1

// Result is the outcome of grading one question.
type Result struct {
	IsCorrect  bool
	CorrectIDs []int64
}

// Grade reports whether chosen is exactly the set of correct choices.
// Order and duplicates in chosen are ignored. A question with no correct
// choice is satisfied by an empty selection.
func Grade(choices []questionbank.Choice, chosen []int64) Result {
	key := make(map[int64]struct{})
	var correct []int64
	for _, c := range choices {
		if c.IsCorrect {
			key[c.ID] = struct{}{}
			correct = append(correct, c.ID)
		}
	}

	picked := make(map[int64]struct{}, len(chosen))
	for _, id := range chosen {
		picked[id] = struct{}{}
	}

	return Result{
		IsCorrect:  sameSet(picked, key),
		CorrectIDs: correct,
	}
}

func sameSet(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Percent returns score/total as a whole percentage rounded half up,
// or 0 for an empty exam.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (score*200 + total) / (2 * total)
}

// Tally accumulates per-question results into exam totals.
type Tally struct {
	Score int
	Total int
}

// Add records one graded question.
func (t *Tally) Add(correct bool) {
	t.Total++
	if correct {
		t.Score++
	}
}

// Percent is the rounded percentage of the tally so far.
func (t Tally) Percent() int {
	return Percent(t.Score, t.Total)
}

// NormalizeConfidence maps a missing rating to ConfidenceUnset.
func NormalizeConfidence(c *int) int {
	if c == nil {
		return ConfidenceUnset
	}
	return *c
}
