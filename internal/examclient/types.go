package examclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Option is a multiple-choice label.
type Option string

const (
	OptionA Option = "a"
	OptionB Option = "b"
	OptionC Option = "c"
	OptionD Option = "d"
)

// Options lists the labels in display order; index i is bound to digit key i+1.
var Options = [4]Option{OptionA, OptionB, OptionC, OptionD}

func ParseOption(value string) (Option, bool) {
	switch Option(strings.ToLower(strings.TrimSpace(value))) {
	case OptionA:
		return OptionA, true
	case OptionB:
		return OptionB, true
	case OptionC:
		return OptionC, true
	case OptionD:
		return OptionD, true
	}
	return "", false
}

func (o Option) Index() int {
	for idx, candidate := range Options {
		if candidate == o {
			return idx
		}
	}
	return -1
}

type QuestionID int64

func (id QuestionID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseQuestionID(value string) (QuestionID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid question id %q", value)
	}
	return QuestionID(parsed), nil
}

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	var v flexInt
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*id = QuestionID(v)
	return nil
}

// Test is the immutable assessment header fetched once per attempt.
type Test struct {
	Title           string
	DurationMinutes int
	TotalQuestions  int
	PassingScore    float64
	TotalMarks      float64
	Category        string
	Difficulty      string
}

func (t Test) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

type Question struct {
	ID      QuestionID
	Text    string
	Image   string
	Options [4]string
	Marks   float64
}

func (q Question) OptionText(option Option) string {
	idx := option.Index()
	if idx < 0 {
		return ""
	}
	return q.Options[idx]
}

// TestBundle is a validated GET /tests/{id} response. Question order is the
// server's array order.
type TestBundle struct {
	Test      Test
	Questions []Question
}

// MaxDurationMinutes caps a test at one year so the countdown in seconds
// cannot overflow.
const MaxDurationMinutes = 24 * 60 * 365

func (b TestBundle) Validate() error {
	if b.Test.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration_minutes must be positive, got %d", ErrInvalidResponse, b.Test.DurationMinutes)
	}
	if b.Test.DurationMinutes > MaxDurationMinutes {
		return fmt.Errorf("%w: duration_minutes %d exceeds %d", ErrInvalidResponse, b.Test.DurationMinutes, MaxDurationMinutes)
	}
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: test has no questions", ErrInvalidResponse)
	}
	seen := make(map[QuestionID]struct{}, len(b.Questions))
	for idx, question := range b.Questions {
		if question.ID <= 0 {
			return fmt.Errorf("%w: question %d has no id", ErrInvalidResponse, idx+1)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %d", ErrInvalidResponse, question.ID)
		}
		seen[question.ID] = struct{}{}
	}
	return nil
}

type Answer struct {
	QuestionID     QuestionID `json:"question_id"`
	SelectedAnswer Option     `json:"selected_answer"`
}

type SubmitRequest struct {
	Answers []Answer `json:"answers"`
}

// Result is the grading response. It is handed to the results view untouched.
type Result struct {
	Body json.RawMessage
}

// ResultSummary holds the fields the terminal results view knows how to print.
// Missing fields stay zero.
type ResultSummary struct {
	Score      float64
	TotalMarks float64
	Percentage float64
	Passed     *bool
	Message    string
}

func (r Result) Summary() ResultSummary {
	var envelope struct {
		resultSummaryPayload
		Result *resultSummaryPayload `json:"result"`
		Data   *resultSummaryPayload `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return ResultSummary{}
	}

	payload := envelope.resultSummaryPayload
	switch {
	case envelope.Result != nil:
		payload = *envelope.Result
	case envelope.Data != nil:
		payload = *envelope.Data
	}
	if payload.Message == "" {
		payload.Message = envelope.Message
	}

	return ResultSummary{
		Score:      float64(payload.Score),
		TotalMarks: float64(payload.TotalMarks),
		Percentage: float64(payload.Percentage),
		Passed:     payload.Passed,
		Message:    payload.Message,
	}
}

type resultSummaryPayload struct {
	Score      flexFloat `json:"score"`
	TotalMarks flexFloat `json:"total_marks"`
	Percentage flexFloat `json:"percentage"`
	Passed     *bool     `json:"passed"`
	Message    string    `json:"message"`
}

// Wire shapes.

type testResponse struct {
	Test      testPayload       `json:"test"`
	Questions []questionPayload `json:"questions"`
}

type testPayload struct {
	Title           string    `json:"title"`
	DurationMinutes flexInt   `json:"duration_minutes"`
	TotalQuestions  flexInt   `json:"total_questions"`
	PassingScore    flexFloat `json:"passing_score"`
	TotalMarks      flexFloat `json:"total_marks"`
	Category        string    `json:"category"`
	Difficulty      string    `json:"difficulty"`
}

type questionPayload struct {
	ID            QuestionID `json:"id"`
	QuestionText  string     `json:"question_text"`
	QuestionImage *string    `json:"question_image"`
	OptionA       string     `json:"option_a"`
	OptionB       string     `json:"option_b"`
	OptionC       string     `json:"option_c"`
	OptionD       string     `json:"option_d"`
	Marks         flexFloat  `json:"marks"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (p testResponse) bundle() TestBundle {
	questions := make([]Question, 0, len(p.Questions))
	for _, item := range p.Questions {
		question := Question{
			ID:      item.ID,
			Text:    item.QuestionText,
			Options: [4]string{item.OptionA, item.OptionB, item.OptionC, item.OptionD},
			Marks:   float64(item.Marks),
		}
		if item.QuestionImage != nil {
			question.Image = strings.TrimSpace(*item.QuestionImage)
		}
		questions = append(questions, question)
	}

	return TestBundle{
		Test: Test{
			Title:           p.Test.Title,
			DurationMinutes: int(p.Test.DurationMinutes),
			TotalQuestions:  int(p.Test.TotalQuestions),
			PassingScore:    float64(p.Test.PassingScore),
			TotalMarks:      float64(p.Test.TotalMarks),
			Category:        p.Test.Category,
			Difficulty:      p.Test.Difficulty,
		},
		Questions: questions,
	}
}
