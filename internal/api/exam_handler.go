package api

import (
	"net/http"
	"time"

	"github.com/examdrill/backend/internal/domain/exam"
	"github.com/examdrill/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type ComposeExamRequest struct {
	Topics []string `json:"topics,omitempty" example:"미분"`
	Count  *int     `json:"count,omitempty" validate:"omitempty,min=0" example:"5"`
	Name   string   `json:"name,omitempty" example:"Midterm drill"`
}

type ReviewSessionsRequest struct {
	SessionIDs []int64 `json:"session_ids" validate:"required,min=1,dive,gt=0"`
}

type SubmitAnswerRequest struct {
	QuestionID int64   `json:"question_id" validate:"required,gt=0"`
	ChoiceIDs  []int64 `json:"choice_ids"`
	Confidence *int    `json:"confidence,omitempty" validate:"omitempty,min=-1"`
}

type SubmitExamRequest struct {
	Answers []SubmitAnswerRequest `json:"answers" validate:"dive"`
}

// ExamChoice hides whether the choice is correct.
type ExamChoice struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

type ExamQuestionResponse struct {
	ID           int64        `json:"id"`
	Text         string       `json:"text"`
	Images       []string     `json:"images"`
	Topic        string       `json:"topic"`
	CorrectCount int          `json:"correct_count" example:"1"`
	Choices      []ExamChoice `json:"choices"`
}

type ExamResponse struct {
	Token     string                 `json:"token,omitempty" example:"6f1c2b0e-3f7a-4a59-9d0c-2b7d3c1e8a44"`
	Name      string                 `json:"name" example:"Untitled exam"`
	Topics    []string               `json:"topics"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
	Questions []ExamQuestionResponse `json:"questions"`
}

type GradedAnswerResponse struct {
	QuestionID int64   `json:"question_id"`
	Chosen     []int64 `json:"chosen"`
	CorrectIDs []int64 `json:"correct_ids"`
	IsCorrect  bool    `json:"is_correct"`
	Confidence int     `json:"confidence"`
}

type SubmitExamResponse struct {
	SessionID int64                  `json:"session_id"`
	Name      string                 `json:"name"`
	Score     int                    `json:"score" example:"4"`
	Total     int                    `json:"total" example:"5"`
	Percent   int                    `json:"percent" example:"80"`
	Results   []GradedAnswerResponse `json:"results"`
}

func examResponse(e *service.Exam) ExamResponse {
	resp := ExamResponse{
		Token:     e.Token,
		Name:      e.Name,
		Topics:    nonNil(e.Topics),
		Questions: make([]ExamQuestionResponse, len(e.Questions)),
	}
	if e.Token != "" {
		expires := e.ExpiresAt
		resp.ExpiresAt = &expires
	}
	for i, eq := range e.Questions {
		q := eq.Question
		choices := make([]ExamChoice, len(q.Choices))
		for j, c := range q.Choices {
			choices[j] = ExamChoice{ID: c.ID, Text: c.Text, Image: c.Image}
		}
		resp.Questions[i] = ExamQuestionResponse{
			ID:           q.ID,
			Text:         q.Text,
			Images:       nonNil(q.Images),
			Topic:        q.Topic,
			CorrectCount: eq.CorrectCount,
			Choices:      choices,
		}
	}
	return resp
}

// respondExam answers 201 when an exam was stored and 200 for an empty one.
func respondExam(w http.ResponseWriter, e *service.Exam) {
	status := http.StatusCreated
	if e.Token == "" {
		status = http.StatusOK
	}
	respondJSON(w, status, examResponse(e))
}

// ── Handlers ────────────────────────────────────────────────────────────────

// composeExam draws a random exam.
// @Summary      Compose an exam
// @Description  Samples questions from the given topics (all topics when empty). An empty pool yields an exam without a token.
// @Tags         Exams
// @Accept       json
// @Produce      json
// @Param        body  body      ComposeExamRequest  true  "Exam settings"
// @Success      201   {object}  ExamResponse
// @Success      200   {object}  ExamResponse  "no questions matched"
// @Failure      400   {object}  ErrorResponse
// @Router       /exams [post]
func (h *Handler) composeExam(w http.ResponseWriter, r *http.Request) {
	var req ComposeExamRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cfg := exam.DefaultConfig()
	cfg.Count = h.defaultExamSize
	cfg.Topics = req.Topics
	if req.Count != nil {
		cfg.Count = *req.Count
	}
	if req.Name != "" {
		cfg.Name = req.Name
	}

	e, err := h.exams.Compose(r.Context(), cfg)
	if h.handleError(w, err, "exam") {
		return
	}
	respondExam(w, e)
}

// reviewAllWrong builds an exam from every question ever answered wrongly.
// @Summary      Review all wrong answers
// @Tags         Exams
// @Produce      json
// @Success      201  {object}  ExamResponse
// @Success      200  {object}  ExamResponse  "nothing to review"
// @Router       /exams/review [post]
func (h *Handler) reviewAllWrong(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.ReviewAllWrong(r.Context())
	if h.handleError(w, err, "exam") {
		return
	}
	respondExam(w, e)
}

// reviewSessions builds an exam from the wrong answers of past sessions.
// @Summary      Review wrong answers of sessions
// @Tags         Exams
// @Accept       json
// @Produce      json
// @Param        body  body      ReviewSessionsRequest  true  "Sessions to review"
// @Success      201   {object}  ExamResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse  "session not found"
// @Router       /exams/review/sessions [post]
func (h *Handler) reviewSessions(w http.ResponseWriter, r *http.Request) {
	var req ReviewSessionsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	e, err := h.exams.ReviewSessions(r.Context(), req.SessionIDs)
	if h.handleError(w, err, "session") {
		return
	}
	respondExam(w, e)
}

// getExam re-reads a composed exam.
// @Summary      Get an exam
// @Tags         Exams
// @Produce      json
// @Param        token  path      string  true  "Exam token"
// @Success      200    {object}  ExamResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      410    {object}  ErrorResponse  "exam expired"
// @Router       /exams/{token} [get]
func (h *Handler) getExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.GetExam(r.Context(), r.PathValue("token"))
	if h.handleError(w, err, "exam") {
		return
	}
	respondJSON(w, http.StatusOK, examResponse(e))
}

// submitExam grades an exam and records it in the history.
// @Summary      Submit an exam
// @Description  Grades every question of the exam; unanswered questions count as wrong. The exam can be submitted once.
// @Tags         Exams
// @Accept       json
// @Produce      json
// @Param        token  path      string             true  "Exam token"
// @Param        body   body      SubmitExamRequest  true  "Answers"
// @Success      201    {object}  SubmitExamResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      410    {object}  ErrorResponse  "exam expired"
// @Router       /exams/{token}/submit [post]
func (h *Handler) submitExam(w http.ResponseWriter, r *http.Request) {
	var req SubmitExamRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	answers := make([]service.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = service.Answer{QuestionID: a.QuestionID, Chosen: a.ChoiceIDs, Confidence: a.Confidence}
	}

	res, err := h.exams.Submit(r.Context(), r.PathValue("token"), answers)
	if h.handleError(w, err, "exam") {
		return
	}

	resp := SubmitExamResponse{
		SessionID: res.SessionID,
		Name:      res.Name,
		Score:     res.Score,
		Total:     res.Total,
		Percent:   res.Percent,
		Results:   make([]GradedAnswerResponse, len(res.Results)),
	}
	for i, g := range res.Results {
		resp.Results[i] = GradedAnswerResponse{
			QuestionID: g.Question.ID,
			Chosen:     nonNil(g.Chosen),
			CorrectIDs: nonNil(g.CorrectIDs),
			IsCorrect:  g.IsCorrect,
			Confidence: g.Confidence,
		}
	}
	respondJSON(w, http.StatusCreated, resp)
}
