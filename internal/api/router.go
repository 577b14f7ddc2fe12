package api

import (
	"log/slog"
	"net/http"
	"time"
)

func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Question bank
	mux.HandleFunc("GET /topics", h.listTopics)
	mux.HandleFunc("GET /tags", h.listTags)
	mux.HandleFunc("POST /questions", h.createQuestion)
	mux.HandleFunc("GET /questions/{questionID}", h.getQuestion)
	mux.HandleFunc("POST /questions/{questionID}/error", h.toggleError)
	mux.HandleFunc("GET /questions/{questionID}/log", h.answerLog)

	// Triage
	mux.HandleFunc("GET /triage", h.listTriage)
	mux.HandleFunc("GET /triage/{questionID}/neighbors", h.triageNeighbors)

	// Exams
	mux.HandleFunc("POST /exams", h.composeExam)
	mux.HandleFunc("POST /exams/review", h.reviewAllWrong)
	mux.HandleFunc("POST /exams/review/sessions", h.reviewSessions)
	mux.HandleFunc("GET /exams/{token}", h.getExam)
	mux.HandleFunc("POST /exams/{token}/submit", h.submitExam)

	// History
	mux.HandleFunc("GET /history", h.listSessions)
	mux.HandleFunc("GET /history/{sessionID}", h.getSessionDetail)
	mux.HandleFunc("PATCH /history/{sessionID}", h.renameSession)
	mux.HandleFunc("DELETE /history/{sessionID}", h.deleteSession)
	mux.HandleFunc("PUT /history/{sessionID}/notes/{questionID}", h.saveNote)

	// Export
	mux.HandleFunc("GET /export", h.exportBank)
	mux.HandleFunc("POST /import", h.importBank)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs one line per request with its status and duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// CORS allows any origin; the API is meant for a local front end.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
