package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/examdrill/backend/internal/domain/questionbank"
)

// ── Request / Response types ────────────────────────────────────────────────

type ExportChoice struct {
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"`
	IsCorrect bool   `json:"is_correct"`
}

type ExportQuestion struct {
	Text        string         `json:"text"`
	Images      []string       `json:"images,omitempty"`
	Subject     string         `json:"subject,omitempty"`
	Topic       string         `json:"topic,omitempty"`
	Tags        string         `json:"tags,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
	HasError    bool           `json:"has_error,omitempty"`
	Choices     []ExportChoice `json:"choices"`
}

type ExportData struct {
	Version    string           `json:"version" example:"1.0"`
	ExportedAt string           `json:"exported_at"`
	Questions  []ExportQuestion `json:"questions"`
}

type ImportResult struct {
	QuestionsCreated int `json:"questions_created"`
	QuestionsSkipped int `json:"questions_skipped"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// exportBank writes the whole question bank as a JSON attachment.
// @Summary      Export the question bank
// @Tags         Export
// @Produce      json
// @Success      200  {object}  ExportData
// @Failure      500  {object}  ErrorResponse
// @Router       /export [get]
func (h *Handler) exportBank(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.AllQuestions(r.Context())
	if h.handleError(w, err, "questions") {
		return
	}

	exportData := ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Questions:  make([]ExportQuestion, len(questions)),
	}
	for i, q := range questions {
		eq := ExportQuestion{
			Text:        q.Text,
			Images:      q.Images,
			Subject:     q.Subject,
			Topic:       q.Topic,
			Tags:        q.Tags,
			Explanation: q.Explanation,
			HasError:    q.HasError,
			Choices:     make([]ExportChoice, len(q.Choices)),
		}
		for j, c := range q.Choices {
			eq.Choices[j] = ExportChoice{Text: c.Text, Image: c.Image, IsCorrect: c.IsCorrect}
		}
		exportData.Questions[i] = eq
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=examdrill-export.json")
	json.NewEncoder(w).Encode(exportData)
}

// importBank appends the questions of an export file to the bank in one
// transaction. Invalid questions are skipped and logged; a storage failure
// writes nothing.
// @Summary      Import questions
// @Tags         Export
// @Accept       json
// @Produce      json
// @Param        body  body      ExportData  true  "Export file"
// @Success      201   {object}  ImportResult
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /import [post]
func (h *Handler) importBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var importData ExportData
	if !h.decodeAndValidate(w, r, &importData) {
		return
	}

	result := ImportResult{}
	var valid []*questionbank.Question
	for _, eq := range importData.Questions {
		q := &questionbank.Question{
			Text:        eq.Text,
			Images:      eq.Images,
			Subject:     eq.Subject,
			Topic:       eq.Topic,
			Tags:        eq.Tags,
			Explanation: eq.Explanation,
			HasError:    eq.HasError,
		}
		for _, c := range eq.Choices {
			q.Choices = append(q.Choices, questionbank.Choice{Text: c.Text, Image: c.Image, IsCorrect: c.IsCorrect})
		}
		if err := q.Validate(); err != nil {
			h.logger.Warn("skipping invalid question", "text", eq.Text, "error", err)
			result.QuestionsSkipped++
			continue
		}
		valid = append(valid, q)
	}

	if h.handleError(w, h.store.CreateQuestions(ctx, valid), "questions") {
		return
	}
	result.QuestionsCreated = len(valid)

	respondJSON(w, http.StatusCreated, result)
}
