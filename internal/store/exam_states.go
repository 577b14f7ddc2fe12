package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/examdrill/backend/internal/domain/exam"
)

// SaveExamState records a composed exam under its token.
func (s *SQLiteStore) SaveExamState(ctx context.Context, st *exam.State) error {
	idsJSON, err := json.Marshal(st.QuestionIDs)
	if err != nil {
		return fmt.Errorf("marshal question ids: %w", err)
	}
	topics := st.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exam_states (token, name, question_ids, topics, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.Token, st.Name, string(idsJSON), string(topicsJSON), st.CreatedAt.UTC(), st.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert exam state: %w", err)
	}
	return nil
}

// GetExamState returns the exam addressed by token, expired or not; the
// caller decides what expiry means.
func (s *SQLiteStore) GetExamState(ctx context.Context, token string) (*exam.State, error) {
	return getExamState(ctx, s.db, token)
}

// PurgeExpiredExamStates drops exams whose lifetime ended before now.
func (s *SQLiteStore) PurgeExpiredExamStates(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM exam_states WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge exam states: %w", err)
	}
	return res.RowsAffected()
}

func getExamState(ctx context.Context, q queryer, token string) (*exam.State, error) {
	var st exam.State
	var idsJSON, topicsJSON string
	err := q.QueryRowContext(ctx,
		"SELECT token, name, question_ids, topics, created_at, expires_at FROM exam_states WHERE token = ?",
		token,
	).Scan(&st.Token, &st.Name, &idsJSON, &topicsJSON, &st.CreatedAt, &st.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query exam state: %w", err)
	}
	if err := json.Unmarshal([]byte(idsJSON), &st.QuestionIDs); err != nil {
		return nil, fmt.Errorf("decode question ids: %w", err)
	}
	if err := json.Unmarshal([]byte(topicsJSON), &st.Topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return &st, nil
}
