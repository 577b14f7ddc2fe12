package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/examdrill/backend/internal/service"
	"github.com/examdrill/backend/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	store    *store.SQLiteStore
	exams    *service.ExamService
	history  *service.HistoryService
	logger   *slog.Logger
	validate *validator.Validate

	pageSize        int
	defaultExamSize int
}

// Options carries the tunables the handlers need from configuration.
type Options struct {
	TriagePageSize  int
	DefaultExamSize int
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(s *store.SQLiteStore, exams *service.ExamService, history *service.HistoryService, logger *slog.Logger, opts Options) *Handler {
	if opts.TriagePageSize <= 0 {
		opts.TriagePageSize = 10
	}
	if opts.DefaultExamSize <= 0 {
		opts.DefaultExamSize = 5
	}
	return &Handler{
		store:           s,
		exams:           exams,
		history:         history,
		logger:          logger,
		validate:        validator.New(),
		pageSize:        opts.TriagePageSize,
		defaultExamSize: opts.DefaultExamSize,
	}
}

type ErrorResponse struct {
	Error  string            `json:"error" example:"not found"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// decodeAndValidate decodes the JSON body into dst and runs its validate
// tags. It writes a 400 and returns false on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			respondError(w, http.StatusBadRequest, "invalid input")
			return false
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

// handleError maps service and store errors to HTTP responses. Returns
// true if an error was handled (caller should return).
func (h *Handler) handleError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExamExpired):
		respondError(w, http.StatusGone, "exam expired")
	default:
		h.logger.Error("request failed", "error", err, "entity", entity)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}

// pathID parses a positive integer path value. It writes a 400 and
// returns false when the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || v <= 0 {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return v, true
}
