// Package examservice is a self-hosted exam backend speaking the same REST
// contract the learner client uses: fetch a test, start an attempt, submit
// answers for grading.
package examservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTestNotFound = errors.New("test not found")
	ErrMaxAttempts  = errors.New("maximum attempts reached")
	ErrNotStarted   = errors.New("test has not been started")
	ErrInvalidTest  = errors.New("invalid test definition")
	ErrNoLearner    = errors.New("learner is required")
)

const (
	StatusCorrect         = "correct"
	StatusIncorrect       = "incorrect"
	StatusInvalidQuestion = "invalid_question"
	StatusInvalidLetter   = "invalid_letter"
	StatusDuplicate       = "duplicate"
)

var optionLetters = [4]string{"a", "b", "c", "d"}

type Test struct {
	ID              string
	Title           string
	Category        string
	Difficulty      string
	DurationMinutes int
	PassingScore    float64
	MaxAttempts     int
	CreatedAt       time.Time
}

// TestSummary is a test header with its question count and total marks.
type TestSummary struct {
	Test
	QuestionCount int
	TotalMarks    float64
}

type Question struct {
	ID       int64
	Text     string
	Image    string
	Options  [4]string
	Answer   string
	Marks    float64
	Position int
}

// TotalMarks sums question marks; it is derived rather than stored.
func TotalMarks(questions []Question) float64 {
	total := 0.0
	for _, question := range questions {
		total += question.Marks
	}
	return total
}

type Attempt struct {
	ID          string
	TestID      string
	Learner     string
	StartedAt   time.Time
	SubmittedAt *time.Time
}

type Answer struct {
	QuestionID int64
	Selected   string
}

type AnswerResult struct {
	QuestionID int64   `json:"question_id"`
	Selected   string  `json:"selected_answer"`
	Status     string  `json:"status"`
	Marks      float64 `json:"marks"`
}

type Result struct {
	AttemptID   string         `json:"attempt_id"`
	TestID      string         `json:"test_id"`
	Score       float64        `json:"score"`
	TotalMarks  float64        `json:"total_marks"`
	Percentage  float64        `json:"percentage"`
	Passed      bool           `json:"passed"`
	Correct     int            `json:"correct"`
	Answered    int            `json:"answered"`
	Questions   int            `json:"total_questions"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Details     []AnswerResult `json:"details"`
}

// SubmitParams identifies a submission. IdempotencyKey may be empty, in which
// case replays are not detected.
type SubmitParams struct {
	TestID         string
	Learner        string
	IdempotencyKey string
}

type Repository interface {
	SaveTest(ctx context.Context, test Test, questions []Question) error
	GetTest(ctx context.Context, testID string) (Test, []Question, error)
	ListTests(ctx context.Context) ([]TestSummary, error)
	// StartAttempt returns the learner's open attempt if there is one,
	// otherwise records attempt unless maxAttempts (when positive) is used up.
	StartAttempt(ctx context.Context, attempt Attempt, maxAttempts int) (Attempt, error)
	// SubmitAttempt closes the learner's open attempt with result. A known
	// idempotency key returns the stored result instead.
	SubmitAttempt(ctx context.Context, params SubmitParams, result Result) (Result, error)
}

// maxDurationMinutes matches the one-year limit the exam client enforces.
const maxDurationMinutes = 24 * 60 * 365

// Validate checks a test definition before it is stored.
func Validate(test Test, questions []Question) error {
	if strings.TrimSpace(test.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTest)
	}
	if test.DurationMinutes <= 0 || test.DurationMinutes > maxDurationMinutes {
		return fmt.Errorf("%w: test %s: duration_minutes must be between 1 and %d", ErrInvalidTest, test.ID, maxDurationMinutes)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: test %s has no questions", ErrInvalidTest, test.ID)
	}
	seen := make(map[int64]struct{}, len(questions))
	for _, question := range questions {
		if question.ID <= 0 {
			return fmt.Errorf("%w: test %s: question id must be positive", ErrInvalidTest, test.ID)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: test %s: duplicate question %d", ErrInvalidTest, test.ID, question.ID)
		}
		seen[question.ID] = struct{}{}
		if letterIndex(question.Answer) < 0 {
			return fmt.Errorf("%w: test %s: question %d answer must be a-d", ErrInvalidTest, test.ID, question.ID)
		}
		if question.Marks < 0 {
			return fmt.Errorf("%w: test %s: question %d has negative marks", ErrInvalidTest, test.ID, question.ID)
		}
	}
	return nil
}

func letterIndex(value string) int {
	value = strings.ToLower(strings.TrimSpace(value))
	for idx, letter := range optionLetters {
		if value == letter {
			return idx
		}
	}
	return -1
}
