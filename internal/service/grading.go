package service

import (
	"context"
	"fmt"

	"github.com/examdrill/backend/internal/domain/questionbank"
	"github.com/examdrill/backend/internal/grader"
	"github.com/examdrill/backend/internal/store"
)

// Answer is what the taker submitted for one question. A nil Confidence
// means no rating was given.
type Answer struct {
	QuestionID int64
	Chosen     []int64
	Confidence *int
}

// GradedAnswer is the outcome for one question of a submitted exam.
type GradedAnswer struct {
	Question   *questionbank.Question
	Chosen     []int64
	CorrectIDs []int64
	IsCorrect  bool
	Confidence int
}

// Submission is the result of handing in an exam.
type Submission struct {
	SessionID int64
	Name      string
	Score     int
	Total     int
	Percent   int
	Results   []GradedAnswer
}

// Submit grades the answers against the exam stored under token and
// records the outcome atomically. The stored question list is
// authoritative: questions left unanswered are graded as an empty
// selection and answers to questions outside the exam are rejected.
func (s *ExamService) Submit(ctx context.Context, token string, answers []Answer) (*Submission, error) {
	st, err := s.liveState(ctx, token)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[int64]Answer, len(answers))
	for _, a := range answers {
		if !st.Contains(a.QuestionID) {
			return nil, fmt.Errorf("%w: question %d is not part of this exam", ErrValidation, a.QuestionID)
		}
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, fmt.Errorf("%w: question %d answered twice", ErrValidation, a.QuestionID)
		}
		byQuestion[a.QuestionID] = a
	}

	found, err := s.store.GetQuestions(ctx, st.QuestionIDs)
	if err != nil {
		return nil, err
	}

	var tally grader.Tally
	sub := &store.Submission{Token: st.Token, Name: st.Name, CreatedAt: s.now()}
	graded := make([]GradedAnswer, 0, len(st.QuestionIDs))
	for _, qid := range st.QuestionIDs {
		q, ok := found[qid]
		if !ok {
			// Deleted after the exam was composed.
			continue
		}
		a := byQuestion[qid]
		res := grader.Grade(q.Choices, a.Chosen)
		confidence := grader.NormalizeConfidence(a.Confidence)
		tally.Add(res.IsCorrect)

		sub.Results = append(sub.Results, store.AnswerResult{
			QuestionID: qid,
			Chosen:     a.Chosen,
			IsCorrect:  res.IsCorrect,
			Confidence: confidence,
		})
		graded = append(graded, GradedAnswer{
			Question:   q,
			Chosen:     a.Chosen,
			CorrectIDs: res.CorrectIDs,
			IsCorrect:  res.IsCorrect,
			Confidence: confidence,
		})
	}
	sub.Score = tally.Score
	sub.Total = tally.Total
	sub.Percent = tally.Percent()

	sessionID, err := s.store.SaveSubmission(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.logger.Info("exam submitted",
		"session_id", sessionID,
		"name", sub.Name,
		"score", sub.Score,
		"total", sub.Total,
		"percent", sub.Percent,
	)

	return &Submission{
		SessionID: sessionID,
		Name:      sub.Name,
		Score:     sub.Score,
		Total:     sub.Total,
		Percent:   sub.Percent,
		Results:   graded,
	}, nil
}
