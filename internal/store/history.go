package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/examdrill/backend/internal/domain/questionbank"
)

// SessionSummary is a completed exam as listed in the history.
type SessionSummary struct {
	ID        int64
	Name      string
	Score     int
	Total     int
	Percent   int
	CreatedAt time.Time
}

// DetailItem is one answered question joined back to the bank.
type DetailItem struct {
	Question   *questionbank.Question
	Chosen     []int64
	CorrectIDs []int64
	IsCorrect  bool
	Confidence int
	Note       string
}

// SessionDetail reconstructs a completed exam.
type SessionDetail struct {
	Session SessionSummary
	Items   []DetailItem
}

// ListSessions returns all completed exams, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, score, total, percent, created_at FROM test_sessions ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(&ss.ID, &ss.Name, &ss.Score, &ss.Total, &ss.Percent, &ss.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*SessionSummary, error) {
	return getSession(ctx, s.db, id)
}

func (s *SQLiteStore) RenameSession(ctx context.Context, id int64, name string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE test_sessions SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session with its answers and notes. Questions,
// choices and the wrong-answer set are left alone.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_notes WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_answers WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM test_sessions WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SessionDetail joins each recorded answer to its question and choices and
// merges in any note. Answers whose question no longer exists are skipped.
func (s *SQLiteStore) SessionDetail(ctx context.Context, id int64) (*SessionDetail, error) {
	session, err := getSession(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.notesBySession(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, chosen_choice_ids, is_correct, confidence
		 FROM user_answers WHERE session_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	var items []DetailItem
	var qids []int64
	for rows.Next() {
		var item DetailItem
		var qid int64
		var chosenJSON string
		if err := rows.Scan(&qid, &chosenJSON, &item.IsCorrect, &item.Confidence); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if err := json.Unmarshal([]byte(chosenJSON), &item.Chosen); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode chosen ids: %w", err)
		}
		item.Question = &questionbank.Question{ID: qid}
		items = append(items, item)
		qids = append(qids, qid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	questions, err := loadQuestions(ctx, s.db, qids)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{Session: *session, Items: make([]DetailItem, 0, len(items))}
	for _, item := range items {
		q, ok := questions[item.Question.ID]
		if !ok {
			continue
		}
		item.Question = q
		item.CorrectIDs = q.AnswerKey()
		item.Note = notes[q.ID]
		detail.Items = append(detail.Items, item)
	}
	return detail, nil
}

// WrongQuestionIDsInSessions returns the deduplicated ids answered
// incorrectly in any of the given sessions, in session then answer order.
// Every session must exist.
func (s *SQLiteStore) WrongQuestionIDsInSessions(ctx context.Context, sessionIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{})
	var out []int64
	for _, sid := range sessionIDs {
		if _, err := getSession(ctx, s.db, sid); err != nil {
			return nil, err
		}
		ids, err := collectIDs(ctx, s.db,
			"SELECT question_id FROM user_answers WHERE session_id = ? AND is_correct = FALSE ORDER BY id", sid,
		)
		if err != nil {
			return nil, fmt.Errorf("query wrong answers of session %d: %w", sid, err)
		}
		for _, qid := range ids {
			if _, ok := seen[qid]; ok {
				continue
			}
			seen[qid] = struct{}{}
			out = append(out, qid)
		}
	}
	return out, nil
}

// SaveNote stores text as the note for a question within a session,
// replacing any earlier note.
func (s *SQLiteStore) SaveNote(ctx context.Context, sessionID, questionID int64, text string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getSession(ctx, tx, sessionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_notes (session_id, question_id, note_text) VALUES (?, ?, ?)
			 ON CONFLICT (session_id, question_id) DO UPDATE SET note_text = excluded.note_text`,
			sessionID, questionID, text,
		)
		if err != nil {
			return fmt.Errorf("upsert note: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) notesBySession(ctx context.Context, sessionID int64) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id, note_text FROM user_notes WHERE session_id = ?", sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[int64]string)
	for rows.Next() {
		var qid int64
		var text string
		if err := rows.Scan(&qid, &text); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes[qid] = text
	}
	return notes, rows.Err()
}

func getSession(ctx context.Context, q queryer, id int64) (*SessionSummary, error) {
	var ss SessionSummary
	err := q.QueryRowContext(ctx,
		"SELECT id, name, score, total, percent, created_at FROM test_sessions WHERE id = ?", id,
	).Scan(&ss.ID, &ss.Name, &ss.Score, &ss.Total, &ss.Percent, &ss.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &ss, nil
}
