package opentdb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient(&http.Client{Transport: rt})
}

func okResponse(body []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestFetchQuestionsUsesDefaultAmountWhenNonPositive(t *testing.T) {
	var seenAmount, seenType string

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seenAmount = r.URL.Query().Get("amount")
		seenType = r.URL.Query().Get("type")
		return okResponse([]byte(`{"response_code":0,"results":[]}`)), nil
	}))

	questions, err := client.FetchQuestions(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchQuestions returned error: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(questions))
	}
	if seenAmount != "10" {
		t.Fatalf("expected default amount 10, got %q", seenAmount)
	}
	if seenType != "multiple" {
		t.Fatalf("expected multiple choice filter, got %q", seenType)
	}
}

func TestFetchPassesFiltersAndCapsAmount(t *testing.T) {
	var query map[string][]string

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		query = r.URL.Query()
		return okResponse([]byte(`{"response_code":0,"results":[{"type":"multiple","question":"Q","correct_answer":"A","incorrect_answers":["B","C","D"]}]}`)), nil
	}))

	questions, err := client.Fetch(context.Background(), Query{Amount: 500, Category: 19, Difficulty: " Hard "})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "A" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
	if query["amount"][0] != "50" || query["category"][0] != "19" || query["difficulty"][0] != "hard" {
		t.Fatalf("unexpected query: %v", query)
	}
}

func TestFetchQuestionsPropagatesNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}))

	if _, err := client.FetchQuestions(context.Background(), 5); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestFetchQuestionsJSONDecodeError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return okResponse([]byte("not-json")), nil
	}))

	if _, err := client.FetchQuestions(context.Background(), 3); err == nil {
		t.Fatalf("expected JSON decode error")
	}
}

func TestFetchQuestionsNonZeroResponseCode(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		encoded, err := json.Marshal(apiResponse{
			ResponseCode: 1,
			Results:      []RawQuestion{{Question: "ignored"}},
		})
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		return okResponse(encoded), nil
	}))

	if _, err := client.FetchQuestions(context.Background(), 3); err == nil {
		t.Fatalf("expected error for non-zero response_code")
	}
}
