package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/examdrill/backend/internal/domain/questionbank"
	"github.com/examdrill/backend/internal/ranking"
)

const (
	tableQuestions = "questions"
	tableChoices   = "choices"
)

// TriageRow is one line of the ranked triage listing.
type TriageRow struct {
	Question     *questionbank.Question
	CorrectCount int
}

// TriagePage is a page of the ranked listing plus the size of the whole
// filtered set.
type TriagePage struct {
	Rows       []TriageRow
	Total      int
	Page       int
	TotalPages int
}

// ListRanked returns one page of questions matching f in triage order.
func (s *SQLiteStore) ListRanked(ctx context.Context, f ranking.Filter, page ranking.Page) (*TriagePage, error) {
	total, err := s.countFiltered(ctx, f)
	if err != nil {
		return nil, err
	}

	b := entsql.Dialect(dialect.SQLite)
	q := b.Table(tableQuestions).As("q")
	cols := make([]string, 0, len(questionColumns)+1)
	for _, c := range questionColumns {
		cols = append(cols, q.C(c))
	}
	cols = append(cols, correctCountExpr)

	sel := rankedSelector(f, cols...).
		Limit(page.Size).
		Offset(page.Offset())
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query triage page: %w", err)
	}
	defer rows.Close()

	result := &TriagePage{
		Total:      total,
		Page:       page.Number,
		TotalPages: ranking.TotalPages(total, page.Size),
	}
	for rows.Next() {
		var row TriageRow
		question, err := scanQuestion(rows, &row.CorrectCount)
		if err != nil {
			return nil, err
		}
		row.Question = question
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// RankedIDs returns every question id matching f in triage order. The
// editor uses it to find a question's neighbors; it shares rankedSelector
// with ListRanked so both see the same sequence.
func (s *SQLiteStore) RankedIDs(ctx context.Context, f ranking.Filter) ([]int64, error) {
	b := entsql.Dialect(dialect.SQLite)
	q := b.Table(tableQuestions).As("q")

	query, args := rankedSelector(f, q.C("id")).Query()
	ids, err := collectIDs(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ranked ids: %w", err)
	}
	return ids, nil
}

// QuestionIDsByTopics returns the ids of questions whose topic is one of
// topics, or every id when topics is empty.
func (s *SQLiteStore) QuestionIDsByTopics(ctx context.Context, topics []string) ([]int64, error) {
	b := entsql.Dialect(dialect.SQLite)
	q := b.Table(tableQuestions).As("q")
	sel := b.Select(q.C("id")).From(q).OrderBy(q.C("id"))
	if len(topics) > 0 {
		args := make([]any, len(topics))
		for i, t := range topics {
			args[i] = t
		}
		sel.Where(entsql.In(q.C("topic"), args...))
	}

	query, args := sel.Query()
	ids, err := collectIDs(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pool ids: %w", err)
	}
	return ids, nil
}

// correctCountExpr counts a question's correct choices over the LEFT JOIN;
// questions without choices count zero.
var correctCountExpr = "COALESCE(SUM(CASE WHEN `c`.`is_correct` THEN 1 ELSE 0 END), 0)"

// rankedSelector builds the filtered, grouped and ordered question query.
// The ORDER BY mirrors ranking.Less.
func rankedSelector(f ranking.Filter, columns ...string) *entsql.Selector {
	b := entsql.Dialect(dialect.SQLite)
	q := b.Table(tableQuestions).As("q")
	c := b.Table(tableChoices).As("c")

	sel := b.Select(columns...).
		From(q).
		LeftJoin(c).
		On(q.C("id"), c.C("question_id"))
	if p := filterPredicate(q, f); p != nil {
		sel.Where(p)
	}

	return sel.
		GroupBy(q.C("id")).
		OrderBy(
			entsql.Desc(q.C("has_error")),
			fmt.Sprintf("CASE WHEN %s = 0 THEN 0 ELSE 1 END", correctCountExpr),
			fmt.Sprintf("CASE WHEN %s IS NULL OR TRIM(%s) = '' THEN 0 ELSE 1 END", q.C("topic"), q.C("topic")),
			entsql.Desc(q.C("id")),
		)
}

func (s *SQLiteStore) countFiltered(ctx context.Context, f ranking.Filter) (int, error) {
	b := entsql.Dialect(dialect.SQLite)
	q := b.Table(tableQuestions).As("q")
	sel := b.Select("COUNT(*)").From(q)
	if p := filterPredicate(q, f); p != nil {
		sel.Where(p)
	}

	query, args := sel.Query()
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count filtered questions: %w", err)
	}
	return total, nil
}

// filterPredicate turns the triage filter into a WHERE clause, or nil when
// the filter is empty.
func filterPredicate(q *entsql.SelectTable, f ranking.Filter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.Text != "" {
		preds = append(preds, entsql.Contains(q.C("question_text"), f.Text))
	}
	if f.Topic != "" {
		preds = append(preds, entsql.EQ(q.C("topic"), f.Topic))
	}
	if f.Tag != "" {
		preds = append(preds, entsql.Contains(q.C("tags"), f.Tag))
	}
	if len(preds) == 0 {
		return nil
	}
	return entsql.And(preds...)
}

func questionsByIDQuery(ids []int64) (string, []any) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(tableQuestions)
	cols := make([]string, len(questionColumns))
	for i, c := range questionColumns {
		cols[i] = t.C(c)
	}
	return b.Select(cols...).
		From(t).
		Where(entsql.In(t.C("id"), int64Args(ids)...)).
		Query()
}

func choicesByQuestionQuery(ids []int64) (string, []any) {
	b := entsql.Dialect(dialect.SQLite)
	t := b.Table(tableChoices)
	return b.Select(t.C("id"), t.C("question_id"), t.C("choice_text"), t.C("image_path"), t.C("is_correct")).
		From(t).
		Where(entsql.In(t.C("question_id"), int64Args(ids)...)).
		OrderBy(t.C("id")).
		Query()
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, v := range ids {
		args[i] = v
	}
	return args
}
