package service

import (
	"context"

	"github.com/examdrill/backend/internal/domain/exam"
	"github.com/examdrill/backend/internal/domain/questionbank"
	"github.com/examdrill/backend/internal/store"
)

// Store is the persistence the services depend on. *store.SQLiteStore
// satisfies it.
type Store interface {
	QuestionIDsByTopics(ctx context.Context, topics []string) ([]int64, error)
	GetQuestions(ctx context.Context, ids []int64) (map[int64]*questionbank.Question, error)

	SaveExamState(ctx context.Context, st *exam.State) error
	GetExamState(ctx context.Context, token string) (*exam.State, error)
	SaveSubmission(ctx context.Context, sub *store.Submission) (int64, error)

	WrongQuestionIDs(ctx context.Context) ([]int64, error)
	WrongQuestionIDsInSessions(ctx context.Context, sessionIDs []int64) ([]int64, error)

	ListSessions(ctx context.Context) ([]store.SessionSummary, error)
	SessionDetail(ctx context.Context, id int64) (*store.SessionDetail, error)
	RenameSession(ctx context.Context, id int64, name string) error
	DeleteSession(ctx context.Context, id int64) error
	SaveNote(ctx context.Context, sessionID, questionID int64, text string) error
}

var _ Store = (*store.SQLiteStore)(nil)
