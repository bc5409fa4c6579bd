package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"careerpath/internal/examservice"
	"careerpath/internal/examservice/sqlite"
	"careerpath/internal/logging"
)

func newTestService(t *testing.T) *examservice.Service {
	t.Helper()

	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "exams.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	service := examservice.NewService(repo, logging.Discard())
	err = service.CreateTest(context.Background(), examservice.Test{
		ID:              "12",
		Title:           "Banking Aptitude Mock 1",
		DurationMinutes: 30,
		PassingScore:    50,
		MaxAttempts:     1,
	}, []examservice.Question{
		{ID: 101, Text: "15% of 200?", Options: [4]string{"20", "30", "35", "40"}, Answer: "b", Marks: 2},
		{ID: 102, Text: "Capital of India?", Image: "uploads/map.png", Options: [4]string{"Mumbai", "Delhi", "Pune", "Agra"}, Answer: "b", Marks: 1},
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	return service
}

func serve(handler http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var payload errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload
}

func TestStatusRecorderWriteTracksAndTruncates(t *testing.T) {
	base := httptest.NewRecorder()
	recorder := &statusRecorder{
		ResponseWriter: base,
		statusCode:     http.StatusOK,
		maxLogBytes:    10,
	}

	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	written, err := recorder.Write(payload)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if written != len(payload) {
		t.Fatalf("written bytes = %d, want %d", written, len(payload))
	}
	if recorder.bytesWritten != len(payload) {
		t.Fatalf("bytesWritten = %d, want %d", recorder.bytesWritten, len(payload))
	}
	if recorder.logBody.Len() != 10 {
		t.Fatalf("log body length = %d, want 10", recorder.logBody.Len())
	}
	if !recorder.truncated {
		t.Fatalf("expected truncated flag to be true")
	}

	recorder.WriteHeader(http.StatusTeapot)
	if recorder.statusCode != http.StatusOK {
		t.Fatalf("status changed after body was written: %d", recorder.statusCode)
	}
}

func TestFlexIDAcceptsNumbersAndStrings(t *testing.T) {
	var request submitRequest
	body := `{"answers":[{"question_id":101,"selected_answer":"b"},{"question_id":" 102 ","selected_answer":"a"}]}`
	if err := json.Unmarshal([]byte(body), &request); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(request.Answers) != 2 || request.Answers[0].QuestionID != 101 || request.Answers[1].QuestionID != 102 {
		t.Fatalf("unexpected answers: %+v", request.Answers)
	}

	if err := json.Unmarshal([]byte(`{"answers":[{"question_id":"q1"}]}`), &request); err == nil {
		t.Fatalf("expected error for non-numeric question id")
	}
}

func TestGetTestHidesAnswerKey(t *testing.T) {
	router := NewRouter(newTestService(t), Options{Logger: logging.Discard()})

	rec := serve(router, http.MethodGet, "/api/tests/12", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Test      map[string]any   `json:"test"`
		Questions []map[string]any `json:"questions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Test["total_marks"] != 3.0 || payload.Test["total_questions"] != 2.0 {
		t.Fatalf("unexpected test header: %+v", payload.Test)
	}
	if len(payload.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(payload.Questions))
	}
	for _, question := range payload.Questions {
		if _, leaked := question["answer"]; leaked {
			t.Fatalf("answer key exposed: %+v", question)
		}
	}
	if payload.Questions[0]["question_image"] != nil || payload.Questions[1]["question_image"] != "uploads/map.png" {
		t.Fatalf("unexpected images: %+v", payload.Questions)
	}

	rec = serve(router, http.MethodGet, "/api/tests/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decodeError(t, rec); got.Success || got.Message != "Test not found" {
		t.Fatalf("unexpected error payload: %+v", got)
	}
}

func TestListTests(t *testing.T) {
	router := NewRouter(newTestService(t), Options{Logger: logging.Discard()})

	rec := serve(router, http.MethodGet, "/api/tests", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload testListResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Tests) != 1 || payload.Tests[0].ID != "12" || payload.Tests[0].TotalQuestions != 2 {
		t.Fatalf("unexpected list: %+v", payload.Tests)
	}
	if payload.Tests[0].TotalMarks != 3 || payload.Tests[0].DurationMinutes != 30 || payload.Tests[0].MaxAttempts != 1 {
		t.Fatalf("unexpected header: %+v", payload.Tests[0])
	}
}

func TestAttemptStatusCodes(t *testing.T) {
	router := NewRouter(newTestService(t), Options{Logger: logging.Discard()})
	learner := map[string]string{learnerHeader: "asha"}

	rec := serve(router, http.MethodPost, "/api/tests/12/submit", `{"answers":[]}`, learner)
	if rec.Code != http.StatusConflict {
		t.Fatalf("submit before start = %d, want 409", rec.Code)
	}

	rec = serve(router, http.MethodPost, "/api/tests/12/start", "", learner)
	if rec.Code != http.StatusOK {
		t.Fatalf("start = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodPost, "/api/tests/12/submit", `{"answers":`, learner)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body = %d, want 400", rec.Code)
	}

	headers := map[string]string{learnerHeader: "asha", "Idempotency-Key": "key-1"}
	body := `{"answers":[{"question_id":101,"selected_answer":"b"},{"question_id":"102","selected_answer":"c"}]}`
	rec = serve(router, http.MethodPost, "/api/tests/12/submit", body, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit = %d, body = %s", rec.Code, rec.Body.String())
	}
	var submitted submitResponse
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if submitted.Result.Score != 2 || submitted.Result.TotalMarks != 3 || !submitted.Result.Passed {
		t.Fatalf("unexpected result: %+v", submitted.Result)
	}

	rec = serve(router, http.MethodPost, "/api/tests/12/submit", body, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("replayed submit = %d, want 200", rec.Code)
	}

	rec = serve(router, http.MethodPost, "/api/tests/12/start", "", learner)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("start over limit = %d, want 403", rec.Code)
	}
	if got := decodeError(t, rec); got.Message != "Maximum attempts reached" {
		t.Fatalf("unexpected message: %+v", got)
	}

	rec = serve(router, http.MethodPost, "/api/tests/12/start", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("guest start = %d, want 200", rec.Code)
	}
}

func TestUnknownRouteUsesJSONErrors(t *testing.T) {
	router := NewRouter(nil, Options{Logger: logging.Discard()})

	rec := serve(router, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}

	rec = serve(router, http.MethodDelete, "/api/tests/12", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}

	rec = serve(router, http.MethodGet, "/api/tests/12", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("nil service status = %d, want 500", rec.Code)
	}
}

func TestRequestLoggerRecordsFailures(t *testing.T) {
	var logs bytes.Buffer
	router := NewRouter(newTestService(t), Options{Logger: logging.New("debug", "json", &logs)})

	serve(router, http.MethodGet, "/api/tests/missing", "", nil)

	line := logs.String()
	if !strings.Contains(line, `"msg":"request rejected"`) || !strings.Contains(line, `"status":404`) {
		t.Fatalf("unexpected log output: %s", line)
	}
	if !strings.Contains(line, "Test not found") {
		t.Fatalf("error body not logged: %s", line)
	}
}
