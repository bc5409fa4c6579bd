package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"careerpath/internal/examclient"
	"careerpath/internal/session"
	"careerpath/internal/store"
)

type Config struct {
	TestID string
	API    session.ExamAPI
	Store  store.Store
	Clock  session.Clock
	Logger *slog.Logger

	FallbackPath  string
	SubmitTimeout time.Duration
}

// Run drives one test attempt from the terminal until it is submitted, the
// learner exits, or input ends. Exiting early keeps the saved progress.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if strings.TrimSpace(cfg.TestID) == "" {
		return errors.New("test id is required")
	}

	term := newTerminal(in, out)
	defer term.stop()

	controller, err := session.Load(ctx, cfg.TestID, session.Deps{
		API:           cfg.API,
		Store:         cfg.Store,
		Clock:         cfg.Clock,
		Dialog:        term,
		Navigator:     term,
		Notifier:      term,
		Logger:        cfg.Logger,
		FallbackPath:  cfg.FallbackPath,
		SubmitTimeout: cfg.SubmitTimeout,
	})
	if err != nil {
		return err
	}
	defer controller.Close()

	printOverview(term.out, controller)
	printHelp(term.out)

	for {
		select {
		case <-term.finished:
			return nil
		default:
		}
		term.out.Print("\n> ")

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-term.finished:
			return nil
		case line, ok = <-term.lines:
			if !ok {
				term.out.Println()
				return nil
			}
		}

		if quit := dispatch(ctx, term, controller, line); quit {
			term.out.Println("Progress saved. Run the same test id again to resume.")
			return nil
		}
	}
}

func dispatch(ctx context.Context, term *terminal, c *session.Controller, line string) bool {
	args := strings.Fields(strings.TrimSpace(line))
	if len(args) == 0 {
		// An empty line acts like the space bar.
		handleKey(term, c, session.KeyEvent{Key: " "})
		return false
	}

	command := strings.ToLower(args[0])
	switch command {
	case "help":
		printHelp(term.out)
	case "exit", "quit":
		return true
	case "start":
		if err := c.Start(ctx); err != nil {
			if errors.Is(err, session.ErrSubmitted) {
				term.out.Println("This attempt is already submitted.")
			}
			return false
		}
		printQuestion(term.out, c)
	case "status":
		printStatus(term.out, c)
	case "show":
		printQuestion(term.out, c)
	case "goto":
		if len(args) != 2 {
			term.out.Println("usage: goto <question number>")
			return false
		}
		number, err := strconv.Atoi(args[1])
		if err != nil || !c.Navigate(number-1) {
			term.out.Printf("No question %s.\n", args[1])
			return false
		}
		printQuestion(term.out, c)
	case "clear":
		_, question := c.Current()
		if err := c.ClearAnswer(question.ID); err != nil {
			term.out.Printf("error: %v\n", err)
			return false
		}
		printQuestion(term.out, c)
	case "fullscreen":
		if c.ToggleFullscreen() {
			term.out.Println("Fullscreen on. Press esc to leave.")
		} else {
			term.out.Println("Fullscreen off.")
		}
	case "submit":
		runSubmit(ctx, term, c)
	default:
		event, ok := parseKey(args[0])
		if !ok {
			term.out.Println("unknown command. type 'help' for usage.")
			return false
		}
		handleKey(term, c, event)
	}
	return false
}

func handleKey(term *terminal, c *session.Controller, event session.KeyEvent) {
	if !c.HandleKey(event) {
		state := c.Snapshot()
		switch {
		case !state.Started:
			term.out.Println("Type 'start' to begin the test.")
		case state.TimeLeft <= 0 && !state.Submitted:
			term.out.Println("Time is up. Answers are locked; type 'submit' to send them.")
		}
		return
	}
	if event.Key == "Escape" {
		term.out.Println("Fullscreen off.")
		return
	}
	printQuestion(term.out, c)
}

func runSubmit(ctx context.Context, term *terminal, c *session.Controller) {
	_, err := c.Submit(ctx, true)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSubmitDeclined):
		term.out.Printf("Submission cancelled. %s remaining.\n", formatClock(c.TimeLeft()))
	case errors.Is(err, session.ErrNotStarted):
		term.out.Println("Type 'start' to begin the test.")
	case errors.Is(err, session.ErrSubmitInProgress), errors.Is(err, session.ErrSubmitted):
		term.out.Printf("error: %v\n", err)
	default:
		// The controller has already told the learner what went wrong.
	}
}

// parseKey turns typed tokens into key events. Modifiers are written as
// prefixes, e.g. "ctrl+1".
func parseKey(token string) (session.KeyEvent, bool) {
	var event session.KeyEvent
	for {
		prefix, rest, found := strings.Cut(token, "+")
		if !found || rest == "" {
			break
		}
		switch strings.ToLower(prefix) {
		case "ctrl":
			event.Ctrl = true
		case "alt":
			event.Alt = true
		case "cmd", "meta":
			event.Meta = true
		default:
			return session.KeyEvent{}, false
		}
		token = rest
	}

	switch strings.ToLower(token) {
	case "1", "2", "3", "4", "f":
		event.Key = strings.ToLower(token)
	case "a", "b", "c", "d":
		option, _ := examclient.ParseOption(token)
		event.Key = strconv.Itoa(option.Index() + 1)
	case "left", "prev", "p":
		event.Key = "ArrowLeft"
	case "right", "next", "n":
		event.Key = "ArrowRight"
	case "space":
		event.Key = " "
	case "esc", "escape":
		event.Key = "Escape"
	default:
		return session.KeyEvent{}, false
	}
	return event, true
}
