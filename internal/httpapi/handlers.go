package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"careerpath/internal/examclient"
	"careerpath/internal/examservice"
)

func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Success: true, Status: "ok"})
}

func (a *API) HandleListTests(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeError(w, http.StatusInternalServerError, "unavailable", "Exam service unavailable")
		return
	}

	tests, err := a.service.ListTests(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	response := testListResponse{Success: true, Tests: make([]testHeaderResponse, 0, len(tests))}
	for _, summary := range tests {
		response.Tests = append(response.Tests, toSummaryHeader(summary))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) HandleGetTest(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeError(w, http.StatusInternalServerError, "unavailable", "Exam service unavailable")
		return
	}

	test, questions, err := a.service.GetTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, testResponse{
		Success:   true,
		Test:      toTestHeader(test, questions),
		Questions: toQuestionResponses(questions),
	})
}

func (a *API) HandleStart(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeError(w, http.StatusInternalServerError, "unavailable", "Exam service unavailable")
		return
	}

	attempt, err := a.service.StartAttempt(r.Context(), chi.URLParam(r, "testID"), learnerFrom(r.Context()))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		Success: true,
		Message: "Test started",
		Attempt: attemptResponse{
			AttemptID: attempt.ID,
			TestID:    attempt.TestID,
			StartedAt: attempt.StartedAt,
		},
	})
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if a.service == nil {
		writeError(w, http.StatusInternalServerError, "unavailable", "Exam service unavailable")
		return
	}

	defer r.Body.Close()

	var request submitRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	answers := make([]examservice.Answer, 0, len(request.Answers))
	for _, answer := range request.Answers {
		answers = append(answers, examservice.Answer{
			QuestionID: int64(answer.QuestionID),
			Selected:   answer.Selected,
		})
	}

	result, err := a.service.Submit(r.Context(), examservice.SubmitParams{
		TestID:         chi.URLParam(r, "testID"),
		Learner:        learnerFrom(r.Context()),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(examclient.IdempotencyKeyHeader)),
	}, answers)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Success: true,
		Message: "Test submitted",
		Result:  result,
	})
}
