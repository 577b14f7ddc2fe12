package store

import (
	"context"
	"fmt"
	"time"
)

// RecordIfWrong adds questionID to the wrong-answer set when the answer was
// incorrect. The set only grows; recording a question twice keeps one row.
func (s *SQLiteStore) RecordIfWrong(ctx context.Context, questionID int64, isCorrect bool) error {
	if isCorrect {
		return nil
	}
	return recordWrong(ctx, s.db, questionID, time.Now())
}

// WrongQuestionIDs returns every question ever graded incorrect.
func (s *SQLiteStore) WrongQuestionIDs(ctx context.Context) ([]int64, error) {
	ids, err := collectIDs(ctx, s.db, "SELECT question_id FROM wrong_answers ORDER BY question_id")
	if err != nil {
		return nil, fmt.Errorf("query wrong answers: %w", err)
	}
	return ids, nil
}

// recordWrong relies on the UNIQUE constraint rather than a prior lookup,
// so concurrent submissions cannot insert the same question twice.
func recordWrong(ctx context.Context, q queryer, questionID int64, now time.Time) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO wrong_answers (question_id, created_at) VALUES (?, ?) ON CONFLICT (question_id) DO NOTHING",
		questionID, now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record wrong answer: %w", err)
	}
	return nil
}
