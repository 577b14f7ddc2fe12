package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/examdrill/backend/internal/domain/questionbank"
)

// questionColumns is the projection every question scan expects, in order.
var questionColumns = []string{
	"id", "question_text", "image_path", "subject", "topic", "tags", "explanation", "has_error",
}

// CreateQuestion stores q and its choices, filling in the generated ids.
func (s *SQLiteStore) CreateQuestion(ctx context.Context, q *questionbank.Question) error {
	return s.CreateQuestions(ctx, []*questionbank.Question{q})
}

// CreateQuestions stores every question in one transaction: either all of
// them are written or none is.
func (s *SQLiteStore) CreateQuestions(ctx context.Context, questions []*questionbank.Question) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, q := range questions {
			if err := insertQuestion(ctx, tx, q); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertQuestion(ctx context.Context, tx *sql.Tx, q *questionbank.Question) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO questions (question_text, image_path, subject, topic, tags, explanation, has_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.Text, nullIfEmpty(questionbank.JoinList(q.Images)), nullIfEmpty(q.Subject),
		nullIfEmpty(q.Topic), nullIfEmpty(q.Tags), nullIfEmpty(q.Explanation), q.HasError,
	)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	qid, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	q.ID = qid

	for i := range q.Choices {
		c := &q.Choices[i]
		res, err := tx.ExecContext(ctx,
			"INSERT INTO choices (question_id, choice_text, image_path, is_correct) VALUES (?, ?, ?, ?)",
			qid, c.Text, nullIfEmpty(c.Image), c.IsCorrect,
		)
		if err != nil {
			return fmt.Errorf("insert choice: %w", err)
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("choice id: %w", err)
		}
		c.QuestionID = qid
	}
	return nil
}

// GetQuestion returns one question with its choices ordered by id.
func (s *SQLiteStore) GetQuestion(ctx context.Context, id int64) (*questionbank.Question, error) {
	found, err := loadQuestions(ctx, s.db, []int64{id})
	if err != nil {
		return nil, err
	}
	q, ok := found[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q, nil
}

// GetQuestions loads the given questions keyed by id. Ids that do not
// exist are absent from the map.
func (s *SQLiteStore) GetQuestions(ctx context.Context, ids []int64) (map[int64]*questionbank.Question, error) {
	return loadQuestions(ctx, s.db, ids)
}

// AllQuestions returns the whole bank ordered by id.
func (s *SQLiteStore) AllQuestions(ctx context.Context) ([]*questionbank.Question, error) {
	ids, err := collectIDs(ctx, s.db, "SELECT id FROM questions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	found, err := loadQuestions(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*questionbank.Question, 0, len(ids))
	for _, qid := range ids {
		if q, ok := found[qid]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// ToggleError flips the error flag of a question and returns the new value.
func (s *SQLiteStore) ToggleError(ctx context.Context, id int64) (bool, error) {
	var flagged bool
	err := s.db.QueryRowContext(ctx,
		"UPDATE questions SET has_error = NOT has_error WHERE id = ? RETURNING has_error", id,
	).Scan(&flagged)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle error flag: %w", err)
	}
	return flagged, nil
}

// SubjectTopics lists the distinct topics recorded under one subject.
type SubjectTopics struct {
	Subject string
	Topics  []string
}

// TopicOverview returns subjects with their topics, plus question counts
// per topic. Questions without a topic are counted under
// questionbank.UncategorizedTopic.
func (s *SQLiteStore) TopicOverview(ctx context.Context) ([]SubjectTopics, map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT COALESCE(subject, ''), COALESCE(topic, '')
		FROM questions
		ORDER BY 1, 2`)
	if err != nil {
		return nil, nil, fmt.Errorf("query topics: %w", err)
	}
	var subjects []SubjectTopics
	for rows.Next() {
		var subject, topic string
		if err := rows.Scan(&subject, &topic); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan topic: %w", err)
		}
		if n := len(subjects); n == 0 || subjects[n-1].Subject != subject {
			subjects = append(subjects, SubjectTopics{Subject: subject})
		}
		if topic != "" {
			last := &subjects[len(subjects)-1]
			last.Topics = append(last.Topics, topic)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate topics: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(topic, ''), ?), COUNT(*)
		FROM questions
		GROUP BY 1`, questionbank.UncategorizedTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("count topics: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var topic string
		var n int
		if err := rows.Scan(&topic, &n); err != nil {
			return nil, nil, fmt.Errorf("scan topic count: %w", err)
		}
		counts[topic] = n
	}
	return subjects, counts, rows.Err()
}

// Tags returns the sorted vocabulary of tags used across the bank.
func (s *SQLiteStore) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT tags FROM questions WHERE tags IS NOT NULL AND tags != ''",
	)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		raw = append(raw, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questionbank.TagVocabulary(raw), nil
}

// loadQuestions reads questions and their choices. Rows are fully drained
// before the next query; the pool has a single connection.
func loadQuestions(ctx context.Context, q queryer, ids []int64) (map[int64]*questionbank.Question, error) {
	out := make(map[int64]*questionbank.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args := questionsByIDQuery(ids)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out[question.ID] = question
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	query, args = choicesByQuestionQuery(ids)
	rows, err = q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c questionbank.Choice
		var image sql.NullString
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &image, &c.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		c.Image = image.String
		if parent, ok := out[c.QuestionID]; ok {
			parent.Choices = append(parent.Choices, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate choices: %w", err)
	}
	return out, nil
}

// scanQuestion reads the questionColumns projection followed by any extra
// columns the caller selected.
func scanQuestion(rows *sql.Rows, extra ...any) (*questionbank.Question, error) {
	var q questionbank.Question
	var images, subject, topic, tags, explanation sql.NullString
	dest := []any{&q.ID, &q.Text, &images, &subject, &topic, &tags, &explanation, &q.HasError}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	q.Images = questionbank.SplitList(images.String)
	q.Subject = subject.String
	q.Topic = strings.TrimSpace(topic.String)
	q.Tags = tags.String
	q.Explanation = explanation.String
	return &q, nil
}

func collectIDs(ctx context.Context, q queryer, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return ids, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
