package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/examdrill/backend/internal/domain/exam"
	"github.com/examdrill/backend/internal/domain/questionbank"
	"github.com/examdrill/backend/internal/id"
	"github.com/examdrill/backend/internal/store"
)

// ExamQuestion is one question as presented to the taker.
type ExamQuestion struct {
	Question     *questionbank.Question
	CorrectCount int
}

// Exam is a composed exam. Token is empty when there was nothing to ask,
// in which case no state was stored and nothing can be submitted.
type Exam struct {
	Token     string
	Name      string
	Topics    []string
	Questions []ExamQuestion
	ExpiresAt time.Time
}

// ExamService composes exams and review sets and grades submissions.
type ExamService struct {
	store  Store
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// ExamOption customizes an ExamService.
type ExamOption func(*ExamService)

// WithRand fixes the random source used for sampling and shuffling.
func WithRand(rng *rand.Rand) ExamOption {
	return func(s *ExamService) { s.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ExamOption {
	return func(s *ExamService) { s.now = now }
}

// NewExamService creates an ExamService whose exams live for ttl.
func NewExamService(st Store, logger *slog.Logger, ttl time.Duration, opts ...ExamOption) *ExamService {
	s := &ExamService{
		store:  st,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compose draws a random exam from the questions in cfg.Topics (all
// questions when empty).
func (s *ExamService) Compose(ctx context.Context, cfg exam.ComposeConfig) (*Exam, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative", ErrValidation)
	}
	topics := cleanTopics(cfg.Topics)

	pool, err := s.store.QuestionIDsByTopics(ctx, topics)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ids := exam.Sample(pool, cfg.Count, s.rng)
	s.mu.Unlock()

	return s.start(ctx, cfg.Name, ids, topics)
}

// ReviewAllWrong builds an exam from every question ever answered wrongly.
func (s *ExamService) ReviewAllWrong(ctx context.Context) (*Exam, error) {
	ids, err := s.store.WrongQuestionIDs(ctx)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, exam.AllWrongReviewName, s.shuffle(ids), nil)
}

// ReviewSessions builds an exam from the questions answered wrongly in
// the given history sessions.
func (s *ExamService) ReviewSessions(ctx context.Context, sessionIDs []int64) (*Exam, error) {
	sessionIDs = exam.Dedup(sessionIDs)
	if len(sessionIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one session is required", ErrValidation)
	}

	ids, err := s.store.WrongQuestionIDsInSessions(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	name := exam.MultiSessionReviewName(sessionIDs)
	if len(sessionIDs) == 1 {
		name = exam.SessionReviewName(sessionIDs[0])
	}
	return s.start(ctx, name, s.shuffle(ids), nil)
}

// GetExam re-reads a composed exam that has not been submitted yet.
func (s *ExamService) GetExam(ctx context.Context, token string) (*Exam, error) {
	st, err := s.liveState(ctx, token)
	if err != nil {
		return nil, err
	}
	questions, err := s.examQuestions(ctx, st.QuestionIDs)
	if err != nil {
		return nil, err
	}
	return &Exam{
		Token:     st.Token,
		Name:      st.Name,
		Topics:    st.Topics,
		Questions: questions,
		ExpiresAt: st.ExpiresAt,
	}, nil
}

func (s *ExamService) start(ctx context.Context, name string, ids []int64, topics []string) (*Exam, error) {
	if strings.TrimSpace(name) == "" {
		name = exam.DefaultName
	}
	if len(ids) == 0 {
		return &Exam{Name: name, Topics: topics, Questions: []ExamQuestion{}}, nil
	}

	questions, err := s.examQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}

	st := exam.NewState(name, ids, topics, s.ttl, s.now())
	if err := s.store.SaveExamState(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info("exam composed", "token", st.Token, "name", st.Name, "questions", len(ids))

	return &Exam{
		Token:     st.Token,
		Name:      st.Name,
		Topics:    st.Topics,
		Questions: questions,
		ExpiresAt: st.ExpiresAt,
	}, nil
}

// examQuestions loads ids in order, dropping any that no longer exist.
func (s *ExamService) examQuestions(ctx context.Context, ids []int64) ([]ExamQuestion, error) {
	found, err := s.store.GetQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ExamQuestion, 0, len(ids))
	for _, qid := range ids {
		q, ok := found[qid]
		if !ok {
			continue
		}
		out = append(out, ExamQuestion{Question: q, CorrectCount: q.CorrectCount()})
	}
	return out, nil
}

func (s *ExamService) liveState(ctx context.Context, token string) (*exam.State, error) {
	if !id.ValidToken(token) {
		return nil, store.ErrNotFound
	}
	st, err := s.store.GetExamState(ctx, token)
	if err != nil {
		return nil, err
	}
	if st.Expired(s.now()) {
		return nil, ErrExamExpired
	}
	return st, nil
}

func (s *ExamService) shuffle(ids []int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return exam.Shuffle(ids, s.rng)
}

func cleanTopics(topics []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
