// Package session runs one timed test attempt: it owns the answer and flag
// state, the countdown, the local snapshot used to survive reloads, and the
// single submission sent to the exam service.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"careerpath/internal/examclient"
	"careerpath/internal/store"
)

const (
	defaultFallbackPath   = "/courses"
	defaultSubmitTimeout  = 30 * time.Second
	defaultPersistTimeout = 2 * time.Second
	tickInterval          = time.Second
)

var (
	ErrLoad             = errors.New("test could not be loaded")
	ErrNotStarted       = errors.New("test has not been started")
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrSubmitDeclined   = errors.New("submission cancelled")
	ErrSubmitted        = errors.New("test already submitted")
	ErrTimeUp           = errors.New("time is up")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrInvalidOption    = errors.New("option must be one of a, b, c, d")
)

// ExamAPI is the part of the remote exam service the controller depends on.
type ExamAPI interface {
	GetTest(ctx context.Context, testID string) (examclient.TestBundle, error)
	StartAttempt(ctx context.Context, testID string) error
	SubmitAttempt(ctx context.Context, testID string, request examclient.SubmitRequest, idempotencyKey string) (examclient.Result, error)
}

// Summary is what the learner sees before confirming a manual submission.
type Summary struct {
	Total      int
	Answered   int
	Unanswered int
	Flagged    int
}

// Dialog asks the learner a question and reports the choice. Implementations
// block until the learner answers or ctx ends.
type Dialog interface {
	ConfirmSubmit(ctx context.Context, summary Summary) (bool, error)
}

// Navigator owns everything outside the attempt: the results view and the
// course listing.
type Navigator interface {
	ShowResult(testID string, result examclient.Result)
	Redirect(path string)
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

type Notifier interface {
	Notify(level NoticeLevel, message string)
}

type NotifierFunc func(level NoticeLevel, message string)

func (f NotifierFunc) Notify(level NoticeLevel, message string) {
	f(level, message)
}

type Deps struct {
	API       ExamAPI
	Store     store.Store
	Clock     Clock
	Dialog    Dialog
	Navigator Navigator
	Notifier  Notifier
	Logger    *slog.Logger

	// FallbackPath is where the learner is sent when the test cannot be loaded.
	FallbackPath string
	// SubmitTimeout bounds the automatic submission fired by the countdown.
	SubmitTimeout time.Duration
	// NewIdempotencyKey labels the attempt's submission so retries can be
	// recognised server-side.
	NewIdempotencyKey func() string
}

func (d Deps) withDefaults() (Deps, error) {
	if d.API == nil {
		return d, errors.New("session: exam API is required")
	}
	if d.Dialog == nil {
		return d, errors.New("session: dialog is required")
	}
	if d.Navigator == nil {
		return d, errors.New("session: navigator is required")
	}
	if d.Store == nil {
		d.Store = store.NewMemory()
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Notifier == nil {
		d.Notifier = NotifierFunc(func(NoticeLevel, string) {})
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.FallbackPath == "" {
		d.FallbackPath = defaultFallbackPath
	}
	if d.SubmitTimeout <= 0 {
		d.SubmitTimeout = defaultSubmitTimeout
	}
	if d.NewIdempotencyKey == nil {
		d.NewIdempotencyKey = uuid.NewString
	}
	return d, nil
}

// State is a point-in-time copy of the attempt for rendering and tests.
type State struct {
	TestID       string
	Answers      map[examclient.QuestionID]examclient.Option
	Flagged      map[examclient.QuestionID]bool
	TimeLeft     int
	CurrentIndex int
	Started      bool
	Submitting   bool
	Submitted    bool
	Fullscreen   bool
}
