package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/examdrill/backend/internal/domain/questionbank"
	"github.com/examdrill/backend/internal/ranking"
	"github.com/examdrill/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type ChoiceRequest struct {
	Text      string `json:"text" example:"2x"`
	Image     string `json:"image,omitempty"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuestionRequest struct {
	Text        string          `json:"text" validate:"required" example:"d/dx x^2 = ?"`
	Images      []string        `json:"images,omitempty"`
	Subject     string          `json:"subject" example:"Math"`
	Topic       string          `json:"topic" example:"미분"`
	Tags        string          `json:"tags" example:"calc,easy"`
	Explanation string          `json:"explanation"`
	Choices     []ChoiceRequest `json:"choices" validate:"required,min=1,dive"`
}

type ChoiceResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionResponse struct {
	ID           int64            `json:"id"`
	Text         string           `json:"text"`
	Images       []string         `json:"images"`
	Subject      string           `json:"subject"`
	Topic        string           `json:"topic"`
	Tags         []string         `json:"tags"`
	Explanation  string           `json:"explanation"`
	HasError     bool             `json:"has_error"`
	CorrectCount int              `json:"correct_count"`
	Choices      []ChoiceResponse `json:"choices"`
}

type SubjectTopicsResponse struct {
	Subject string   `json:"subject" example:"Math"`
	Topics  []string `json:"topics"`
}

type TopicsResponse struct {
	Subjects []SubjectTopicsResponse `json:"subjects"`
	Counts   map[string]int          `json:"counts"`
}

type ToggleErrorResponse struct {
	ID       int64 `json:"id"`
	HasError bool  `json:"has_error"`
}

type AnswerLogResponse struct {
	IsCorrect  bool      `json:"is_correct"`
	Confidence int       `json:"confidence" example:"-1"`
	CreatedAt  time.Time `json:"created_at"`
}

type TriageItem struct {
	ID            int64    `json:"id"`
	Text          string   `json:"text"`
	Topic         string   `json:"topic"`
	Tags          []string `json:"tags"`
	HasError      bool     `json:"has_error"`
	CorrectCount  int      `json:"correct_count"`
	Broken        bool     `json:"broken"`
	Uncategorized bool     `json:"uncategorized"`
}

type TriageResponse struct {
	Items      []TriageItem `json:"items"`
	Page       int          `json:"page" example:"1"`
	TotalPages int          `json:"total_pages" example:"3"`
	Total      int          `json:"total" example:"27"`
}

type NeighborsResponse struct {
	ID   int64  `json:"id"`
	Prev *int64 `json:"prev"`
	Next *int64 `json:"next"`
}

func questionResponse(q *questionbank.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:           q.ID,
		Text:         q.Text,
		Images:       nonNil(q.Images),
		Subject:      q.Subject,
		Topic:        q.Topic,
		Tags:         nonNil(q.TagList()),
		Explanation:  q.Explanation,
		HasError:     q.HasError,
		CorrectCount: q.CorrectCount(),
		Choices:      make([]ChoiceResponse, len(q.Choices)),
	}
	for i, c := range q.Choices {
		resp.Choices[i] = ChoiceResponse{ID: c.ID, Text: c.Text, Image: c.Image, IsCorrect: c.IsCorrect}
	}
	return resp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func triageFilter(r *http.Request) ranking.Filter {
	q := r.URL.Query()
	return ranking.Filter{
		Text:  q.Get("q"),
		Topic: q.Get("topic"),
		Tag:   q.Get("tag"),
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listTopics returns subjects with their topics and per-topic counts.
// @Summary      List topics
// @Description  Subjects with their distinct topics, and the number of questions per topic. Questions without a topic are counted as "uncategorized".
// @Tags         Questions
// @Produce      json
// @Success      200  {object}  TopicsResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /topics [get]
func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	subjects, counts, err := h.store.TopicOverview(r.Context())
	if h.handleError(w, err, "topics") {
		return
	}

	resp := TopicsResponse{
		Subjects: make([]SubjectTopicsResponse, len(subjects)),
		Counts:   counts,
	}
	for i, s := range subjects {
		resp.Subjects[i] = SubjectTopicsResponse{Subject: s.Subject, Topics: nonNil(s.Topics)}
	}
	respondJSON(w, http.StatusOK, resp)
}

// listTags returns the tag vocabulary.
// @Summary      List tags
// @Tags         Questions
// @Produce      json
// @Success      200  {array}   string
// @Failure      500  {object}  ErrorResponse
// @Router       /tags [get]
func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags(r.Context())
	if h.handleError(w, err, "tags") {
		return
	}
	respondJSON(w, http.StatusOK, nonNil(tags))
}

// createQuestion adds a question with its choices to the bank.
// @Summary      Create a question
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        body  body      CreateQuestionRequest  true  "Question to create"
// @Success      201   {object}  QuestionResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /questions [post]
func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	q := &questionbank.Question{
		Text:        req.Text,
		Images:      req.Images,
		Subject:     req.Subject,
		Topic:       req.Topic,
		Tags:        req.Tags,
		Explanation: req.Explanation,
	}
	for _, c := range req.Choices {
		q.Choices = append(q.Choices, questionbank.Choice{Text: c.Text, Image: c.Image, IsCorrect: c.IsCorrect})
	}
	if err := q.Validate(); err != nil {
		h.handleError(w, fmt.Errorf("%w: %v", service.ErrValidation, err), "question")
		return
	}

	if h.handleError(w, h.store.CreateQuestion(r.Context(), q), "question") {
		return
	}
	respondJSON(w, http.StatusCreated, questionResponse(q))
}

// getQuestion returns a question with its choices.
// @Summary      Get a question
// @Tags         Questions
// @Produce      json
// @Param        questionID  path      int  true  "Question ID"
// @Success      200         {object}  QuestionResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /questions/{questionID} [get]
func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	q, err := h.store.GetQuestion(r.Context(), id)
	if h.handleError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, questionResponse(q))
}

// toggleError flips the error flag of a question.
// @Summary      Toggle the error flag
// @Tags         Questions
// @Produce      json
// @Param        questionID  path      int  true  "Question ID"
// @Success      200         {object}  ToggleErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /questions/{questionID}/error [post]
func (h *Handler) toggleError(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	flagged, err := h.store.ToggleError(r.Context(), id)
	if h.handleError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, ToggleErrorResponse{ID: id, HasError: flagged})
}

// answerLog returns every graded attempt at a question.
// @Summary      Answer log of a question
// @Tags         Questions
// @Produce      json
// @Param        questionID  path      int  true  "Question ID"
// @Success      200         {array}   AnswerLogResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /questions/{questionID}/log [get]
func (h *Handler) answerLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.store.GetQuestion(ctx, id); h.handleError(w, err, "question") {
		return
	}
	entries, err := h.store.AnswerLog(ctx, id)
	if h.handleError(w, err, "answer log") {
		return
	}

	resp := make([]AnswerLogResponse, len(entries))
	for i, e := range entries {
		resp[i] = AnswerLogResponse{IsCorrect: e.IsCorrect, Confidence: e.Confidence, CreatedAt: e.CreatedAt}
	}
	respondJSON(w, http.StatusOK, resp)
}

// listTriage returns one page of questions in triage order.
// @Summary      Triage listing
// @Description  Error-flagged questions first, then questions without a correct choice, then uncategorized ones, then newest first.
// @Tags         Triage
// @Produce      json
// @Param        q      query     string  false  "Substring of the question text"
// @Param        topic  query     string  false  "Exact topic"
// @Param        tag    query     string  false  "Substring of the tags"
// @Param        page   query     int     false  "1-based page number"
// @Success      200    {object}  TriageResponse
// @Failure      400    {object}  ErrorResponse
// @Router       /triage [get]
func (h *Handler) listTriage(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	result, err := h.store.ListRanked(r.Context(), triageFilter(r), ranking.Page{Number: page, Size: h.pageSize})
	if h.handleError(w, err, "triage") {
		return
	}

	resp := TriageResponse{
		Items:      make([]TriageItem, len(result.Rows)),
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Total:      result.Total,
	}
	for i, row := range result.Rows {
		q := row.Question
		resp.Items[i] = TriageItem{
			ID:            q.ID,
			Text:          q.Text,
			Topic:         q.Topic,
			Tags:          nonNil(q.TagList()),
			HasError:      q.HasError,
			CorrectCount:  row.CorrectCount,
			Broken:        row.CorrectCount == 0,
			Uncategorized: q.Uncategorized(),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// triageNeighbors returns the questions before and after one in triage order.
// @Summary      Triage neighbors
// @Tags         Triage
// @Produce      json
// @Param        questionID  path      int     true   "Question ID"
// @Param        q           query     string  false  "Substring of the question text"
// @Param        topic       query     string  false  "Exact topic"
// @Param        tag         query     string  false  "Substring of the tags"
// @Success      200         {object}  NeighborsResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /triage/{questionID}/neighbors [get]
func (h *Handler) triageNeighbors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "questionID")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.store.GetQuestion(ctx, id); h.handleError(w, err, "question") {
		return
	}

	ranked, err := h.store.RankedIDs(ctx, triageFilter(r))
	if h.handleError(w, err, "triage") {
		return
	}

	resp := NeighborsResponse{ID: id}
	prev, next := ranking.Neighbors(ranked, id)
	if prev != 0 {
		resp.Prev = &prev
	}
	if next != 0 {
		resp.Next = &next
	}
	respondJSON(w, http.StatusOK, resp)
}
