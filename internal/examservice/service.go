package examservice

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo  Repository
	log   *slog.Logger
	cache *testCache
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:  repo,
		log:   logger,
		cache: newTestCache(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (s *Service) CreateTest(ctx context.Context, test Test, questions []Question) error {
	test.ID = strings.TrimSpace(test.ID)
	if err := Validate(test, questions); err != nil {
		return err
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = s.now()
	}
	for idx := range questions {
		questions[idx].Answer = strings.ToLower(strings.TrimSpace(questions[idx].Answer))
		questions[idx].Position = idx
	}
	if err := s.repo.SaveTest(ctx, test, questions); err != nil {
		return err
	}
	s.cache.invalidate(test.ID)
	return nil
}

func (s *Service) GetTest(ctx context.Context, testID string) (Test, []Question, error) {
	testID = strings.TrimSpace(testID)
	if testID == "" {
		return Test{}, nil, ErrTestNotFound
	}
	if test, questions, ok := s.cache.get(testID); ok {
		return test, questions, nil
	}

	test, questions, err := s.repo.GetTest(ctx, testID)
	if err != nil {
		return Test{}, nil, err
	}
	s.cache.set(test, questions)
	return test, questions, nil
}

func (s *Service) ListTests(ctx context.Context) ([]TestSummary, error) {
	return s.repo.ListTests(ctx)
}

// StartAttempt opens an attempt for learner, or returns the one already open
// so a reloaded client can carry on.
func (s *Service) StartAttempt(ctx context.Context, testID, learner string) (Attempt, error) {
	learner, err := normalizeLearner(learner)
	if err != nil {
		return Attempt{}, err
	}
	test, _, err := s.GetTest(ctx, testID)
	if err != nil {
		return Attempt{}, err
	}

	attempt, err := s.repo.StartAttempt(ctx, Attempt{
		ID:        s.newID(),
		TestID:    test.ID,
		Learner:   learner,
		StartedAt: s.now(),
	}, test.MaxAttempts)
	if err != nil {
		return Attempt{}, err
	}
	s.log.Info("attempt started", "test_id", test.ID, "learner", learner, "attempt_id", attempt.ID)
	return attempt, nil
}

// Submit grades answers against the learner's open attempt.
func (s *Service) Submit(ctx context.Context, params SubmitParams, answers []Answer) (Result, error) {
	learner, err := normalizeLearner(params.Learner)
	if err != nil {
		return Result{}, err
	}
	params.Learner = learner

	test, questions, err := s.GetTest(ctx, params.TestID)
	if err != nil {
		return Result{}, err
	}
	params.TestID = test.ID

	result := Grade(test, questions, answers)
	result.SubmittedAt = s.now()

	stored, err := s.repo.SubmitAttempt(ctx, params, result)
	if err != nil {
		return Result{}, err
	}
	s.log.Info("attempt graded",
		"test_id", test.ID,
		"learner", learner,
		"attempt_id", stored.AttemptID,
		"score", stored.Score,
		"passed", stored.Passed,
	)
	return stored, nil
}

// Grade scores answers by question marks. Only the first answer per question
// counts; unknown questions and letters outside a-d score nothing.
func Grade(test Test, questions []Question, answers []Answer) Result {
	lookup := make(map[int64]Question, len(questions))
	for _, question := range questions {
		lookup[question.ID] = question
	}

	result := Result{
		TestID:     test.ID,
		TotalMarks: TotalMarks(questions),
		Questions:  len(questions),
		Details:    make([]AnswerResult, 0, len(answers)),
	}
	seen := make(map[int64]struct{}, len(answers))

	for _, answer := range answers {
		detail := AnswerResult{
			QuestionID: answer.QuestionID,
			Selected:   strings.ToLower(strings.TrimSpace(answer.Selected)),
		}

		question, ok := lookup[answer.QuestionID]
		if !ok {
			detail.Status = StatusInvalidQuestion
			result.Details = append(result.Details, detail)
			continue
		}
		if _, dup := seen[answer.QuestionID]; dup {
			detail.Status = StatusDuplicate
			result.Details = append(result.Details, detail)
			continue
		}
		seen[answer.QuestionID] = struct{}{}

		if letterIndex(detail.Selected) < 0 {
			detail.Status = StatusInvalidLetter
			result.Details = append(result.Details, detail)
			continue
		}

		result.Answered++
		detail.Status = StatusIncorrect
		if detail.Selected == question.Answer {
			detail.Status = StatusCorrect
			detail.Marks = question.Marks
			result.Correct++
			result.Score += question.Marks
		}
		result.Details = append(result.Details, detail)
	}

	if result.TotalMarks > 0 {
		result.Percentage = math.Round(result.Score/result.TotalMarks*10000) / 100
	}
	result.Passed = result.Percentage >= test.PassingScore
	return result
}

func normalizeLearner(learner string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(learner))
	if normalized == "" {
		return "", ErrNoLearner
	}
	return normalized, nil
}
