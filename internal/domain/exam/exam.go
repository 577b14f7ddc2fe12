package exam

import (
	"fmt"
	"strings"
	"time"

	"github.com/examdrill/backend/internal/id"
)

const (
	DefaultName        = "Untitled exam"
	AllWrongReviewName = "Wrong-answer review"
)

// State is the server-held record of a composed exam. The ordered ids are
// authoritative when the exam is submitted; nothing the client sends back
// can add or reorder questions.
type State struct {
	Token       string
	Name        string
	QuestionIDs []int64
	Topics      []string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// NewState captures a composed exam with the given lifetime.
func NewState(name string, questionIDs []int64, topics []string, ttl time.Duration, now time.Time) *State {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	now = now.UTC()
	return &State{
		Token:       id.GenerateToken(),
		Name:        name,
		QuestionIDs: questionIDs,
		Topics:      topics,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Expired reports whether the state outlived its lifetime at now.
func (s *State) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Contains reports whether questionID is part of the exam.
func (s *State) Contains(questionID int64) bool {
	for _, qid := range s.QuestionIDs {
		if qid == questionID {
			return true
		}
	}
	return false
}

// SessionReviewName names a review built from one history session.
func SessionReviewName(sessionID int64) string {
	return fmt.Sprintf("Exam #%d wrong-answer review", sessionID)
}

// MultiSessionReviewName names a review built from several history sessions.
func MultiSessionReviewName(sessionIDs []int64) string {
	refs := make([]string, len(sessionIDs))
	for i, sid := range sessionIDs {
		refs[i] = fmt.Sprintf("#%d", sid)
	}
	return fmt.Sprintf("Exams %s wrong-answer review", strings.Join(refs, ", "))
}
