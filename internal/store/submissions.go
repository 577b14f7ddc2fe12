package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AnswerResult is the graded outcome of one question in a submission.
type AnswerResult struct {
	QuestionID int64
	Chosen     []int64
	IsCorrect  bool
	Confidence int
}

// Submission is everything written when an exam is handed in.
type Submission struct {
	Token     string // exam state consumed by this submission; empty for none
	Name      string
	Score     int
	Total     int
	Percent   int
	Results   []AnswerResult // in exam order
	CreatedAt time.Time
}

// SaveSubmission persists a graded exam as one unit: the exam state is
// consumed, the session row is created, and for each question in order the
// wrong-answer set, answer log and user answer are written. Either all of
// it commits or none of it does.
func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *Submission) (int64, error) {
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	var sessionID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if sub.Token != "" {
			res, err := tx.ExecContext(ctx, "DELETE FROM exam_states WHERE token = ?", sub.Token)
			if err != nil {
				return fmt.Errorf("consume exam state: %w", err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return fmt.Errorf("consume exam state: %w", err)
			} else if n == 0 {
				return ErrNotFound
			}
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO test_sessions (name, score, total, percent, created_at) VALUES (?, ?, ?, ?, ?)",
			sub.Name, sub.Score, sub.Total, sub.Percent, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if sessionID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("session id: %w", err)
		}

		for _, r := range sub.Results {
			if !r.IsCorrect {
				if err := recordWrong(ctx, tx, r.QuestionID, createdAt); err != nil {
					return err
				}
			}

			if _, err := tx.ExecContext(ctx,
				"INSERT INTO answer_logs (question_id, is_correct, confidence, created_at) VALUES (?, ?, ?, ?)",
				r.QuestionID, r.IsCorrect, r.Confidence, createdAt,
			); err != nil {
				return fmt.Errorf("append answer log: %w", err)
			}

			chosen := r.Chosen
			if chosen == nil {
				chosen = []int64{}
			}
			chosenJSON, err := json.Marshal(chosen)
			if err != nil {
				return fmt.Errorf("marshal chosen ids: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_answers (session_id, question_id, chosen_choice_ids, is_correct, confidence)
				 VALUES (?, ?, ?, ?, ?)`,
				sessionID, r.QuestionID, string(chosenJSON), r.IsCorrect, r.Confidence,
			); err != nil {
				return fmt.Errorf("insert user answer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sessionID, nil
}
