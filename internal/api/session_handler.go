package api

import (
	"net/http"
	"time"
)

// ── Request / Response types ────────────────────────────────────────────────

type SessionResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" example:"Untitled exam"`
	Score     int       `json:"score" example:"4"`
	Total     int       `json:"total" example:"5"`
	Percent   int       `json:"percent" example:"80"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionItemResponse struct {
	Question   QuestionResponse `json:"question"`
	Chosen     []int64          `json:"chosen"`
	CorrectIDs []int64          `json:"correct_ids"`
	IsCorrect  bool             `json:"is_correct"`
	Confidence int              `json:"confidence"`
	Note       string           `json:"note"`
}

type SessionDetailResponse struct {
	Session SessionResponse       `json:"session"`
	Items   []SessionItemResponse `json:"items"`
}

type RenameSessionRequest struct {
	Name string `json:"name" validate:"required" example:"Retake"`
}

type SaveNoteRequest struct {
	Text string `json:"text" example:"confused the chain rule"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listSessions returns completed exams, newest first.
// @Summary      List history
// @Tags         History
// @Produce      json
// @Success      200  {array}   SessionResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /history [get]
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.history.List(r.Context())
	if h.handleError(w, err, "sessions") {
		return
	}

	resp := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = SessionResponse{
			ID:        s.ID,
			Name:      s.Name,
			Score:     s.Score,
			Total:     s.Total,
			Percent:   s.Percent,
			CreatedAt: s.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// getSessionDetail reconstructs a completed exam with answers and notes.
// @Summary      Get a history session
// @Tags         History
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  SessionDetailResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /history/{sessionID} [get]
func (h *Handler) getSessionDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	detail, err := h.history.Detail(r.Context(), id)
	if h.handleError(w, err, "session") {
		return
	}

	s := detail.Session
	resp := SessionDetailResponse{
		Session: SessionResponse{
			ID:        s.ID,
			Name:      s.Name,
			Score:     s.Score,
			Total:     s.Total,
			Percent:   s.Percent,
			CreatedAt: s.CreatedAt,
		},
		Items: make([]SessionItemResponse, len(detail.Items)),
	}
	for i, item := range detail.Items {
		resp.Items[i] = SessionItemResponse{
			Question:   questionResponse(item.Question),
			Chosen:     nonNil(item.Chosen),
			CorrectIDs: nonNil(item.CorrectIDs),
			IsCorrect:  item.IsCorrect,
			Confidence: item.Confidence,
			Note:       item.Note,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// renameSession changes a session's name.
// @Summary      Rename a history session
// @Tags         History
// @Accept       json
// @Param        sessionID  path  int                   true  "Session ID"
// @Param        body       body  RenameSessionRequest  true  "New name"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /history/{sessionID} [patch]
func (h *Handler) renameSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	var req RenameSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, h.history.Rename(r.Context(), id, req.Name), "session") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteSession removes a session with its answers and notes.
// @Summary      Delete a history session
// @Tags         History
// @Param        sessionID  path  int  true  "Session ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /history/{sessionID} [delete]
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	if h.handleError(w, h.history.Delete(r.Context(), id), "session") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveNote stores the note for a question within a session.
// @Summary      Save a note
// @Tags         History
// @Accept       json
// @Param        sessionID   path  int              true  "Session ID"
// @Param        questionID  path  int              true  "Question ID"
// @Param        body        body  SaveNoteRequest  true  "Note"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /history/{sessionID}/notes/{questionID} [put]
func (h *Handler) saveNote(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	questionID, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	var req SaveNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if h.handleError(w, h.history.SaveNote(r.Context(), sessionID, questionID, req.Text), "session") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
