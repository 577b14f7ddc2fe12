package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/examdrill/backend/internal/store"
)

// HistoryService manages completed exams.
type HistoryService struct {
	store  Store
	logger *slog.Logger
}

func NewHistoryService(st Store, logger *slog.Logger) *HistoryService {
	return &HistoryService{store: st, logger: logger}
}

func (s *HistoryService) List(ctx context.Context) ([]store.SessionSummary, error) {
	return s.store.ListSessions(ctx)
}

func (s *HistoryService) Detail(ctx context.Context, sessionID int64) (*store.SessionDetail, error) {
	return s.store.SessionDetail(ctx, sessionID)
}

// Rename changes a session's display name. Blank names are rejected.
func (s *HistoryService) Rename(ctx context.Context, sessionID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return s.store.RenameSession(ctx, sessionID, name)
}

func (s *HistoryService) Delete(ctx context.Context, sessionID int64) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// SaveNote attaches text to a question within a session, replacing any
// earlier note.
func (s *HistoryService) SaveNote(ctx context.Context, sessionID, questionID int64, text string) error {
	if sessionID <= 0 || questionID <= 0 {
		return fmt.Errorf("%w: session and question are required", ErrValidation)
	}
	return s.store.SaveNote(ctx, sessionID, questionID, text)
}
