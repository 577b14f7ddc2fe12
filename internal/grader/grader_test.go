package grader_test

import (
	"testing"

	"github.com/examdrill/backend/internal/domain/questionbank"
	"github.com/examdrill/backend/internal/grader"
)

func choices(correct ...int64) []questionbank.Choice {
	isCorrect := make(map[int64]bool)
	for _, id := range correct {
		isCorrect[id] = true
	}
	var out []questionbank.Choice
	for id := int64(1); id <= 4; id++ {
		out = append(out, questionbank.Choice{ID: id, Text: "c", IsCorrect: isCorrect[id]})
	}
	return out
}

func TestGrade_SetEquality(t *testing.T) {
	tests := []struct {
		name    string
		key     []int64
		chosen  []int64
		correct bool
	}{
		{"exact single", []int64{1}, []int64{1}, true},
		{"exact multi any order", []int64{1, 3}, []int64{3, 1}, true},
		{"duplicates ignored", []int64{2}, []int64{2, 2}, true},
		{"empty chosen", []int64{1}, nil, false},
		{"strict subset", []int64{1, 3}, []int64{1}, false},
		{"strict superset", []int64{1}, []int64{1, 2}, false},
		{"disjoint", []int64{1}, []int64{2}, false},
		{"broken question, empty chosen", nil, nil, true},
		{"broken question, something chosen", nil, []int64{4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := grader.Grade(choices(tt.key...), tt.chosen)
			if res.IsCorrect != tt.correct {
				t.Errorf("expected correct=%v, got %v", tt.correct, res.IsCorrect)
			}
			if len(res.CorrectIDs) != len(tt.key) {
				t.Errorf("expected %d correct ids, got %v", len(tt.key), res.CorrectIDs)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{3, 8, 38},
		{0, 5, 0},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := grader.Percent(tt.score, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestTally(t *testing.T) {
	var tally grader.Tally
	tally.Add(true)
	tally.Add(false)
	tally.Add(true)

	if tally.Score != 2 || tally.Total != 3 {
		t.Errorf("expected 2/3, got %d/%d", tally.Score, tally.Total)
	}
	if tally.Percent() != 67 {
		t.Errorf("expected 67%%, got %d", tally.Percent())
	}
}

func TestNormalizeConfidence(t *testing.T) {
	if got := grader.NormalizeConfidence(nil); got != grader.ConfidenceUnset {
		t.Errorf("expected %d for nil, got %d", grader.ConfidenceUnset, got)
	}
	three := 3
	if got := grader.NormalizeConfidence(&three); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
