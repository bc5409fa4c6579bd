package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"careerpath/internal/examservice"
)

const maxRequestBody = 1 << 20

// flexID accepts a question id sent either as a JSON number or a string.
type flexID int64

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(raw))
	}
	parsed, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid question id %s", data)
	}
	*id = flexID(parsed)
	return nil
}

func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, examservice.ErrTestNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Test not found")
	case errors.Is(err, examservice.ErrMaxAttempts):
		writeError(w, http.StatusForbidden, "max_attempts", "Maximum attempts reached")
	case errors.Is(err, examservice.ErrNotStarted):
		writeError(w, http.StatusConflict, "not_started", "Test has not been started")
	case errors.Is(err, examservice.ErrNoLearner):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Learner identity is required")
	case errors.Is(err, examservice.ErrInvalidTest):
		writeError(w, http.StatusBadRequest, "invalid_test", err.Error())
	default:
		a.log.Error("exam service error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Request failed")
	}
}

func toTestHeader(test examservice.Test, questions []examservice.Question) testHeaderResponse {
	return toSummaryHeader(examservice.TestSummary{
		Test:          test,
		QuestionCount: len(questions),
		TotalMarks:    examservice.TotalMarks(questions),
	})
}

func toSummaryHeader(summary examservice.TestSummary) testHeaderResponse {
	return testHeaderResponse{
		ID:              summary.ID,
		Title:           summary.Title,
		Category:        summary.Category,
		Difficulty:      summary.Difficulty,
		DurationMinutes: summary.DurationMinutes,
		PassingScore:    summary.PassingScore,
		TotalMarks:      summary.TotalMarks,
		TotalQuestions:  summary.QuestionCount,
		MaxAttempts:     summary.MaxAttempts,
	}
}

func toQuestionResponses(questions []examservice.Question) []questionResponse {
	response := make([]questionResponse, 0, len(questions))
	for _, question := range questions {
		item := questionResponse{
			ID:           question.ID,
			QuestionText: question.Text,
			OptionA:      question.Options[0],
			OptionB:      question.Options[1],
			OptionC:      question.Options[2],
			OptionD:      question.Options[3],
			Marks:        question.Marks,
		}
		if question.Image != "" {
			image := question.Image
			item.QuestionImage = &image
		}
		response = append(response, item)
	}
	return response
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: code, Message: message})
}
