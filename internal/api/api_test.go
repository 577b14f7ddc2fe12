package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examdrill/backend/internal/api"
	"github.com/examdrill/backend/internal/service"
	"github.com/examdrill/backend/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newServerWithStore(t)
	return srv
}

func newServerWithStore(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exams := service.NewExamService(s, logger, time.Hour, service.WithRand(rand.New(rand.NewSource(1))))
	history := service.NewHistoryService(s, logger)
	h := api.NewHandler(s, exams, history, logger, api.Options{TriagePageSize: 2, DefaultExamSize: 5})

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, h)
	srv := httptest.NewServer(api.CORS(mux))
	t.Cleanup(srv.Close)
	return srv, s
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createQuestion(t *testing.T, srv *httptest.Server, topic string, correct ...bool) api.QuestionResponse {
	t.Helper()
	req := api.CreateQuestionRequest{Text: "question on " + topic, Subject: "Math", Topic: topic}
	for i, ok := range correct {
		req.Choices = append(req.Choices, api.ChoiceRequest{Text: fmt.Sprintf("C%d", i+1), IsCorrect: ok})
	}
	var q api.QuestionResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/questions", req, &q))
	return q
}

func TestCreateQuestion_Validation(t *testing.T) {
	srv := newServer(t)

	status := do(t, srv, http.MethodPost, "/questions", api.CreateQuestionRequest{Text: "no choices"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = do(t, srv, http.MethodPost, "/questions", api.CreateQuestionRequest{
		Text:    "blank choice",
		Choices: []api.ChoiceRequest{{Text: " "}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	q := createQuestion(t, srv, "미분", true, false)
	assert.Equal(t, 1, q.CorrectCount)

	var got api.QuestionResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, fmt.Sprintf("/questions/%d", q.ID), nil, &got))
	assert.Equal(t, q.ID, got.ID)
	assert.Len(t, got.Choices, 2)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/questions/999", nil, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/questions/abc", nil, nil))
}

func TestTriage_PagesAndNeighbors(t *testing.T) {
	srv := newServer(t)
	a := createQuestion(t, srv, "t", true)
	b := createQuestion(t, srv, "t", true)
	broken := createQuestion(t, srv, "t", false)

	var toggled api.ToggleErrorResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, fmt.Sprintf("/questions/%d/error", a.ID), nil, &toggled))
	assert.True(t, toggled.HasError)

	var page1, page2 api.TriageResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/triage?topic=t", nil, &page1))
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/triage?topic=t&page=2", nil, &page2))
	assert.Equal(t, 3, page1.Total)
	assert.Equal(t, 2, page1.TotalPages)
	require.Len(t, page1.Items, 2)
	require.Len(t, page2.Items, 1)
	assert.Equal(t, a.ID, page1.Items[0].ID)
	assert.Equal(t, broken.ID, page1.Items[1].ID)
	assert.True(t, page1.Items[1].Broken)
	assert.Equal(t, b.ID, page2.Items[0].ID)

	var n api.NeighborsResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, fmt.Sprintf("/triage/%d/neighbors?topic=t", broken.ID), nil, &n))
	require.NotNil(t, n.Prev)
	require.NotNil(t, n.Next)
	assert.Equal(t, page1.Items[0].ID, *n.Prev)
	assert.Equal(t, page2.Items[0].ID, *n.Next)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, fmt.Sprintf("/triage/%d/neighbors?topic=t", a.ID), nil, &n))
	assert.Nil(t, n.Prev)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/triage?page=0", nil, nil))
}

func TestExamLifecycle(t *testing.T) {
	srv := newServer(t)
	q := createQuestion(t, srv, "미분", true, false, false)

	count := 1
	var e api.ExamResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/exams",
		api.ComposeExamRequest{Topics: []string{"미분"}, Count: &count}, &e))
	require.NotEmpty(t, e.Token)
	require.Len(t, e.Questions, 1)
	assert.Equal(t, 1, e.Questions[0].CorrectCount)

	var again api.ExamResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/exams/"+e.Token, nil, &again))
	assert.Equal(t, e.Questions[0].ID, again.Questions[0].ID)

	var res api.SubmitExamResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/exams/"+e.Token+"/submit", api.SubmitExamRequest{
		Answers: []api.SubmitAnswerRequest{{QuestionID: q.ID, ChoiceIDs: []int64{q.Choices[1].ID}}},
	}, &res))
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, []int64{q.Choices[0].ID}, res.Results[0].CorrectIDs)
	assert.Equal(t, -1, res.Results[0].Confidence)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/exams/"+e.Token+"/submit", api.SubmitExamRequest{}, nil))

	var review api.ExamResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/exams/review", nil, &review))
	assert.Equal(t, "Wrong-answer review", review.Name)
	require.Len(t, review.Questions, 1)

	var sessionReview api.ExamResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/exams/review/sessions",
		api.ReviewSessionsRequest{SessionIDs: []int64{res.SessionID}}, &sessionReview))
	assert.Equal(t, fmt.Sprintf("Exam #%d wrong-answer review", res.SessionID), sessionReview.Name)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/exams/review/sessions",
		api.ReviewSessionsRequest{}, nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/exams/review/sessions",
		api.ReviewSessionsRequest{SessionIDs: []int64{res.SessionID + 50}}, nil))
}

func TestComposeExam_EmptyAndNegative(t *testing.T) {
	srv := newServer(t)

	var e api.ExamResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/exams", api.ComposeExamRequest{}, &e))
	assert.Empty(t, e.Token)
	assert.Empty(t, e.Questions)
	assert.Equal(t, "Untitled exam", e.Name)

	negative := -3
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/exams", api.ComposeExamRequest{Count: &negative}, nil))
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newServer(t)
	q := createQuestion(t, srv, "t", true)

	var e api.ExamResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/exams", api.ComposeExamRequest{}, &e))
	var res api.SubmitExamResponse
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/exams/"+e.Token+"/submit", api.SubmitExamRequest{
		Answers: []api.SubmitAnswerRequest{{QuestionID: q.ID, ChoiceIDs: []int64{q.Choices[0].ID}}},
	}, &res))
	assert.Equal(t, 100, res.Percent)

	sessionPath := fmt.Sprintf("/history/%d", res.SessionID)
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPatch, sessionPath, api.RenameSessionRequest{Name: "Retake"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, sessionPath, api.RenameSessionRequest{}, nil))

	notePath := fmt.Sprintf("%s/notes/%d", sessionPath, q.ID)
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPut, notePath, api.SaveNoteRequest{Text: "A"}, nil))
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPut, notePath, api.SaveNoteRequest{Text: "B"}, nil))

	var list []api.SessionResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/history", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Retake", list[0].Name)

	var detail api.SessionDetailResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, sessionPath, nil, &detail))
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "B", detail.Items[0].Note)
	assert.True(t, detail.Items[0].IsCorrect)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, sessionPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, sessionPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, sessionPath, nil, nil))
}

func TestTopicsTagsAndExport(t *testing.T) {
	srv := newServer(t)
	for _, req := range []api.CreateQuestionRequest{
		{Text: "a", Subject: "Math", Topic: "미분", Tags: "calc, easy", Choices: []api.ChoiceRequest{{Text: "x", IsCorrect: true}}},
		{Text: "b", Subject: "Math", Tags: "calc", Choices: []api.ChoiceRequest{{Text: "x"}}},
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/questions", req, nil))
	}

	var topics api.TopicsResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/topics", nil, &topics))
	require.Len(t, topics.Subjects, 1)
	assert.Equal(t, []string{"미분"}, topics.Subjects[0].Topics)
	assert.Equal(t, 1, topics.Counts["미분"])
	assert.Equal(t, 1, topics.Counts["uncategorized"])

	var tags []string
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/tags", nil, &tags))
	assert.Equal(t, []string{"calc", "easy"}, tags)

	var exported api.ExportData
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/export", nil, &exported))
	require.Len(t, exported.Questions, 2)

	var imported api.ImportResult
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/import", exported, &imported))
	assert.Equal(t, 2, imported.QuestionsCreated)

	var page api.TriageResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/triage", nil, &page))
	assert.Equal(t, 4, page.Total)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodOptions, "/exams", nil, nil))
}

func TestImport_StorageFailureIsReported(t *testing.T) {
	srv, s := newServerWithStore(t)
	require.NoError(t, s.Close())

	data := api.ExportData{
		Version: "1.0",
		Questions: []api.ExportQuestion{
			{Text: "valid", Choices: []api.ExportChoice{{Text: "x", IsCorrect: true}}},
		},
	}
	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodPost, "/import", data, nil))
}

func TestImport_SkipsOnlyInvalidQuestions(t *testing.T) {
	srv := newServer(t)

	data := api.ExportData{
		Version: "1.0",
		Questions: []api.ExportQuestion{
			{Text: "valid", Choices: []api.ExportChoice{{Text: "x", IsCorrect: true}}},
			{Text: "no choices"},
		},
	}
	var result api.ImportResult
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/import", data, &result))
	assert.Equal(t, 1, result.QuestionsCreated)
	assert.Equal(t, 1, result.QuestionsSkipped)
}
