package store

import (
	"context"
	"fmt"
	"time"
)

// AnswerLogEntry is one graded attempt at a question.
type AnswerLogEntry struct {
	ID         int64
	QuestionID int64
	IsCorrect  bool
	Confidence int
	CreatedAt  time.Time
}

// AnswerLog returns every recorded attempt at questionID, oldest first.
func (s *SQLiteStore) AnswerLog(ctx context.Context, questionID int64) ([]AnswerLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, question_id, is_correct, confidence, created_at FROM answer_logs WHERE question_id = ? ORDER BY id",
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query answer log: %w", err)
	}
	defer rows.Close()

	var entries []AnswerLogEntry
	for rows.Next() {
		var e AnswerLogEntry
		if err := rows.Scan(&e.ID, &e.QuestionID, &e.IsCorrect, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
