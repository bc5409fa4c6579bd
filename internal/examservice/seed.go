package examservice

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout for pre-loading tests:
//
//	tests:
//	  - id: "12"
//	    title: Banking Aptitude Mock 1
//	    duration_minutes: 30
//	    passing_score: 40
//	    max_attempts: 3
//	    questions:
//	      - id: 101
//	        text: What is 15% of 200?
//	        options: ["20", "30", "35", "40"]
//	        answer: b
//	        marks: 2
type SeedFile struct {
	Tests []SeedTest `yaml:"tests"`
}

type SeedTest struct {
	ID              string         `yaml:"id"`
	Title           string         `yaml:"title"`
	Category        string         `yaml:"category"`
	Difficulty      string         `yaml:"difficulty"`
	DurationMinutes int            `yaml:"duration_minutes"`
	PassingScore    float64        `yaml:"passing_score"`
	MaxAttempts     int            `yaml:"max_attempts"`
	Questions       []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	ID      int64    `yaml:"id"`
	Text    string   `yaml:"text"`
	Image   string   `yaml:"image"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
	Marks   *float64 `yaml:"marks"`
}

func ParseSeed(r io.Reader) (SeedFile, error) {
	var seed SeedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if err == io.EOF {
			return SeedFile{}, nil
		}
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

func (t SeedTest) definition() (Test, []Question, error) {
	test := Test{
		ID:              t.ID,
		Title:           t.Title,
		Category:        t.Category,
		Difficulty:      t.Difficulty,
		DurationMinutes: t.DurationMinutes,
		PassingScore:    t.PassingScore,
		MaxAttempts:     t.MaxAttempts,
	}

	questions := make([]Question, 0, len(t.Questions))
	for _, item := range t.Questions {
		if len(item.Options) != len(optionLetters) {
			return Test{}, nil, fmt.Errorf("%w: test %s: question %d needs exactly 4 options", ErrInvalidTest, t.ID, item.ID)
		}
		question := Question{
			ID:     item.ID,
			Text:   item.Text,
			Image:  item.Image,
			Answer: item.Answer,
			Marks:  1,
		}
		copy(question.Options[:], item.Options)
		if item.Marks != nil {
			question.Marks = *item.Marks
		}
		questions = append(questions, question)
	}
	return test, questions, nil
}

// Seed stores every test in seed, replacing tests with the same id.
func (s *Service) Seed(ctx context.Context, seed SeedFile) (int, error) {
	for idx, item := range seed.Tests {
		test, questions, err := item.definition()
		if err == nil {
			err = s.CreateTest(ctx, test, questions)
		}
		if err != nil {
			return idx, err
		}
	}
	return len(seed.Tests), nil
}

func (s *Service) SeedFromFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	seed, err := ParseSeed(file)
	if err != nil {
		return 0, err
	}
	return s.Seed(ctx, seed)
}
