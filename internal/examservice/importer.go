package examservice

import (
	"context"
	"fmt"
	"html"
	"math/rand"
	"strings"

	"careerpath/internal/opentdb"
)

type TriviaFetcher interface {
	Fetch(ctx context.Context, query opentdb.Query) ([]opentdb.RawQuestion, error)
}

// ImportRequest describes a test built from OpenTriviaDB questions.
type ImportRequest struct {
	Test     Test
	Query    opentdb.Query
	Marks    float64
	FirstID  int64
	Shuffler func(n int, swap func(i, j int))
}

// ImportTrivia fetches multiple choice trivia and stores it as a test.
// Questions without exactly three wrong answers are skipped.
func (s *Service) ImportTrivia(ctx context.Context, fetcher TriviaFetcher, req ImportRequest) (int, error) {
	raw, err := fetcher.Fetch(ctx, req.Query)
	if err != nil {
		return 0, fmt.Errorf("fetch trivia: %w", err)
	}

	questions := BuildTriviaQuestions(raw, req)
	if len(questions) == 0 {
		return 0, fmt.Errorf("%w: no usable trivia questions for test %s", ErrInvalidTest, req.Test.ID)
	}

	test := req.Test
	if test.Category == "" {
		test.Category = html.UnescapeString(raw[0].Category)
	}
	if test.Difficulty == "" {
		test.Difficulty = req.Query.Difficulty
	}
	if err := s.CreateTest(ctx, test, questions); err != nil {
		return 0, err
	}
	return len(questions), nil
}

func BuildTriviaQuestions(raw []opentdb.RawQuestion, req ImportRequest) []Question {
	marks := req.Marks
	if marks <= 0 {
		marks = 1
	}
	nextID := req.FirstID
	if nextID <= 0 {
		nextID = 1
	}
	shuffle := req.Shuffler
	if shuffle == nil {
		shuffle = rand.Shuffle
	}

	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers) != len(optionLetters)-1 {
			continue
		}

		type choice struct {
			text      string
			isCorrect bool
		}
		choices := make([]choice, 0, len(optionLetters))
		for _, incorrect := range item.IncorrectAnswers {
			choices = append(choices, choice{text: html.UnescapeString(incorrect)})
		}
		choices = append(choices, choice{text: html.UnescapeString(item.CorrectAnswer), isCorrect: true})
		shuffle(len(choices), func(i, j int) {
			choices[i], choices[j] = choices[j], choices[i]
		})

		question := Question{
			ID:    nextID,
			Text:  strings.TrimSpace(html.UnescapeString(item.Question)),
			Marks: marks,
		}
		for idx, candidate := range choices {
			question.Options[idx] = candidate.text
			if candidate.isCorrect {
				question.Answer = optionLetters[idx]
			}
		}
		questions = append(questions, question)
		nextID++
	}
	return questions
}
