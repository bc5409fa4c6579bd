package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"careerpath/internal/examclient"
	"careerpath/internal/store"
)

// Controller owns one attempt. All methods are safe to call from the input
// loop while the countdown ticks on its own goroutine.
type Controller struct {
	mu sync.Mutex

	testID    string
	test      examclient.Test
	questions []examclient.Question
	position  map[examclient.QuestionID]int

	answers    map[examclient.QuestionID]examclient.Option
	flagged    map[examclient.QuestionID]struct{}
	timeLeft   int
	current    int
	started    bool
	submitting bool
	submitted  bool
	fullscreen bool
	timer      *timerHandle

	idempotencyKey string
	keys           store.AttemptKeys

	api           ExamAPI
	store         store.Store
	clock         Clock
	dialog        Dialog
	navigator     Navigator
	notifier      Notifier
	log           *slog.Logger
	submitTimeout time.Duration
}

// Load fetches the test and resumes any snapshot saved for the same test id.
// When the test cannot be fetched the learner is redirected to the fallback
// page and no controller is returned.
func Load(ctx context.Context, testID string, deps Deps) (*Controller, error) {
	deps, err := deps.withDefaults()
	if err != nil {
		return nil, err
	}

	testID = strings.TrimSpace(testID)
	bundle, err := fetchBundle(ctx, deps.API, testID)
	if err != nil {
		deps.Logger.Warn("test load failed", "test_id", testID, "err", err)
		deps.Notifier.Notify(NoticeError, describeError(err))
		deps.Navigator.Redirect(deps.FallbackPath)
		return nil, fmt.Errorf("%w: test %q: %w", ErrLoad, testID, err)
	}

	c := &Controller{
		testID:         testID,
		test:           bundle.Test,
		questions:      bundle.Questions,
		position:       make(map[examclient.QuestionID]int, len(bundle.Questions)),
		answers:        make(map[examclient.QuestionID]examclient.Option),
		flagged:        make(map[examclient.QuestionID]struct{}),
		timeLeft:       int(bundle.Test.Duration() / time.Second),
		idempotencyKey: deps.NewIdempotencyKey(),
		keys:           store.Keys(testID),
		api:            deps.API,
		store:          deps.Store,
		clock:          deps.Clock,
		dialog:         deps.Dialog,
		navigator:      deps.Navigator,
		notifier:       deps.Notifier,
		log:            deps.Logger.With("test_id", testID),
		submitTimeout:  deps.SubmitTimeout,
	}
	for idx, question := range bundle.Questions {
		c.position[question.ID] = idx
	}

	c.hydrate(ctx)
	c.log.Debug("test loaded",
		"questions", len(c.questions),
		"time_left", c.timeLeft,
		"restored_answers", len(c.answers),
		"restored_flags", len(c.flagged),
	)
	return c, nil
}

func fetchBundle(ctx context.Context, api ExamAPI, testID string) (examclient.TestBundle, error) {
	if testID == "" {
		return examclient.TestBundle{}, errors.New("test id is required")
	}
	bundle, err := api.GetTest(ctx, testID)
	if err != nil {
		return examclient.TestBundle{}, err
	}
	if err := bundle.Validate(); err != nil {
		return examclient.TestBundle{}, err
	}
	return bundle, nil
}

// Start registers the attempt with the exam service and starts the countdown.
// A rejected start leaves the attempt idle so the learner can try again.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.submitted:
		c.mu.Unlock()
		return ErrSubmitted
	case c.started:
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.api.StartAttempt(ctx, c.testID); err != nil {
		c.log.Warn("start rejected", "err", err)
		c.notifier.Notify(NoticeError, describeError(err))
		return fmt.Errorf("start test %s: %w", c.testID, err)
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	expired := c.timeLeft <= 0
	if !expired {
		c.startTimerLocked()
	}
	c.mu.Unlock()

	c.log.Info("attempt started", "time_left", c.TimeLeft())
	if expired {
		// A restored snapshot had already run out of time.
		c.autoSubmit()
	}
	return nil
}

func (c *Controller) SelectAnswer(id examclient.QuestionID, option examclient.Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectAnswerLocked(id, option)
}

func (c *Controller) selectAnswerLocked(id examclient.QuestionID, option examclient.Option) error {
	if err := c.mutableLocked(); err != nil {
		return err
	}
	if _, ok := c.position[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	if option.Index() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}
	c.answers[id] = option
	c.persistAnswersLocked()
	return nil
}

func (c *Controller) ClearAnswer(id examclient.QuestionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutableLocked(); err != nil {
		return err
	}
	if _, ok := c.answers[id]; !ok {
		return nil
	}
	delete(c.answers, id)
	c.persistAnswersLocked()
	return nil
}

func (c *Controller) ToggleFlag(id examclient.QuestionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toggleFlagLocked(id)
}

func (c *Controller) toggleFlagLocked(id examclient.QuestionID) error {
	if err := c.mutableLocked(); err != nil {
		return err
	}
	if _, ok := c.position[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	if _, ok := c.flagged[id]; ok {
		delete(c.flagged, id)
	} else {
		c.flagged[id] = struct{}{}
	}
	c.persistFlaggedLocked()
	return nil
}

func (c *Controller) mutableLocked() error {
	switch {
	case c.submitted:
		return ErrSubmitted
	case c.submitting:
		return ErrSubmitInProgress
	case c.started && c.timeLeft <= 0:
		return ErrTimeUp
	}
	return nil
}

// Navigate moves to the zero-based question index. Out-of-range indexes are
// ignored and reported as false.
func (c *Controller) Navigate(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigateLocked(index)
}

func (c *Controller) navigateLocked(index int) bool {
	if index < 0 || index >= len(c.questions) {
		return false
	}
	c.current = index
	return true
}

func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigateLocked(c.current + 1)
}

func (c *Controller) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigateLocked(c.current - 1)
}

func (c *Controller) ToggleFullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullscreen = !c.fullscreen
	return c.fullscreen
}

// Submit sends the answers to the exam service. A manual submission asks the
// learner to confirm first, unless time is already up; declining resumes the
// countdown where it stopped. Only one submission can be in flight.
func (c *Controller) Submit(ctx context.Context, manual bool) (examclient.Result, error) {
	c.mu.Lock()
	switch {
	case c.submitted:
		c.mu.Unlock()
		return examclient.Result{}, ErrSubmitted
	case !c.started:
		c.mu.Unlock()
		return examclient.Result{}, ErrNotStarted
	case c.submitting:
		c.mu.Unlock()
		return examclient.Result{}, ErrSubmitInProgress
	}
	c.submitting = true
	c.stopTimerLocked()
	summary := c.summaryLocked()
	// Once time is up there is nothing left to confirm.
	ask := manual && c.timeLeft > 0
	c.mu.Unlock()

	if ask {
		confirmed, err := c.dialog.ConfirmSubmit(ctx, summary)
		if err != nil || !confirmed {
			c.mu.Lock()
			c.submitting = false
			if c.timeLeft > 0 {
				c.startTimerLocked()
			}
			c.mu.Unlock()
			if err != nil {
				c.log.Warn("confirmation dialog failed", "err", err)
			}
			return examclient.Result{}, ErrSubmitDeclined
		}
	}

	c.mu.Lock()
	request := c.payloadLocked()
	key := c.idempotencyKey
	c.mu.Unlock()

	result, err := c.api.SubmitAttempt(ctx, c.testID, request, key)
	if err != nil {
		c.mu.Lock()
		// The countdown stays stopped; the learner retries with Submit.
		c.submitting = false
		c.mu.Unlock()
		c.log.Warn("submission failed", "manual", manual, "answers", len(request.Answers), "err", err)
		c.notifier.Notify(NoticeError, "Your answers could not be submitted: "+describeError(err)+". They are saved; please try again.")
		return examclient.Result{}, fmt.Errorf("submit test %s: %w", c.testID, err)
	}

	c.clearSnapshot()

	c.mu.Lock()
	c.submitting = false
	c.submitted = true
	c.fullscreen = false
	c.mu.Unlock()

	c.log.Info("attempt submitted", "manual", manual, "answers", len(request.Answers))
	c.navigator.ShowResult(c.testID, result)
	return result, nil
}

func (c *Controller) autoSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
	defer cancel()

	c.notifier.Notify(NoticeWarning, "Time is up. Submitting your answers.")
	if _, err := c.Submit(ctx, false); err != nil {
		c.log.Warn("automatic submission did not complete", "err", err)
	}
}

// payloadLocked lists answered questions in display order; unanswered ones
// are left out.
func (c *Controller) payloadLocked() examclient.SubmitRequest {
	answers := make([]examclient.Answer, 0, len(c.answers))
	for _, question := range c.questions {
		option, ok := c.answers[question.ID]
		if !ok {
			continue
		}
		answers = append(answers, examclient.Answer{
			QuestionID:     question.ID,
			SelectedAnswer: option,
		})
	}
	return examclient.SubmitRequest{Answers: answers}
}

func (c *Controller) summaryLocked() Summary {
	return Summary{
		Total:      len(c.questions),
		Answered:   len(c.answers),
		Unanswered: len(c.questions) - len(c.answers),
		Flagged:    len(c.flagged),
	}
}

// Close abandons the attempt without submitting. The saved snapshot stays so
// the attempt can be resumed later.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *Controller) TestID() string {
	return c.testID
}

func (c *Controller) Test() examclient.Test {
	return c.test
}

func (c *Controller) Questions() []examclient.Question {
	return append([]examclient.Question(nil), c.questions...)
}

func (c *Controller) Current() (int, examclient.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.questions[c.current]
}

func (c *Controller) TimeLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeft
}

func (c *Controller) Progress() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	answers := make(map[examclient.QuestionID]examclient.Option, len(c.answers))
	for id, option := range c.answers {
		answers[id] = option
	}
	flagged := make(map[examclient.QuestionID]bool, len(c.flagged))
	for id := range c.flagged {
		flagged[id] = true
	}

	return State{
		TestID:       c.testID,
		Answers:      answers,
		Flagged:      flagged,
		TimeLeft:     c.timeLeft,
		CurrentIndex: c.current,
		Started:      c.started,
		Submitting:   c.submitting,
		Submitted:    c.submitted,
		Fullscreen:   c.fullscreen,
	}
}

func (c *Controller) flaggedIDsLocked() []examclient.QuestionID {
	ids := make([]examclient.QuestionID, 0, len(c.flagged))
	for id := range c.flagged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.position[ids[i]] < c.position[ids[j]] })
	return ids
}

// describeError turns an exam service failure into text for the learner.
func describeError(err error) string {
	var apiErr *examclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, examclient.ErrServiceUnavailable):
		return "the exam service could not be reached"
	case errors.Is(err, examclient.ErrInvalidResponse):
		return "the exam service sent an unexpected response"
	case errors.Is(err, context.DeadlineExceeded):
		return "the exam service took too long to respond"
	}
	return err.Error()
}
