package httpapi

import (
	"time"

	"careerpath/internal/examservice"
)

type testHeaderResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	Difficulty      string  `json:"difficulty"`
	DurationMinutes int     `json:"duration_minutes"`
	PassingScore    float64 `json:"passing_score"`
	TotalMarks      float64 `json:"total_marks"`
	TotalQuestions  int     `json:"total_questions"`
	MaxAttempts     int     `json:"max_attempts"`
}

// questionResponse never carries the answer key.
type questionResponse struct {
	ID            int64   `json:"id"`
	QuestionText  string  `json:"question_text"`
	QuestionImage *string `json:"question_image"`
	OptionA       string  `json:"option_a"`
	OptionB       string  `json:"option_b"`
	OptionC       string  `json:"option_c"`
	OptionD       string  `json:"option_d"`
	Marks         float64 `json:"marks"`
}

type testResponse struct {
	Success   bool               `json:"success"`
	Test      testHeaderResponse `json:"test"`
	Questions []questionResponse `json:"questions"`
}

type testListResponse struct {
	Success bool                 `json:"success"`
	Tests   []testHeaderResponse `json:"tests"`
}

type attemptResponse struct {
	AttemptID string    `json:"attempt_id"`
	TestID    string    `json:"test_id"`
	StartedAt time.Time `json:"started_at"`
}

type startResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Attempt attemptResponse `json:"attempt"`
}

type submitAnswer struct {
	QuestionID flexID `json:"question_id"`
	Selected   string `json:"selected_answer"`
}

type submitRequest struct {
	Answers []submitAnswer `json:"answers"`
}

type submitResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Result  examservice.Result `json:"result"`
}

type healthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
