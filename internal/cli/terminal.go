package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"careerpath/internal/examclient"
	"careerpath/internal/session"
)

// printer serialises writes from the input loop and the countdown goroutine.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) Println(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, args...)
}

func (p *printer) Print(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, args...)
}

// terminal is the session's dialog, navigator and notifier on a line-based
// console.
type terminal struct {
	out      *printer
	lines    <-chan string
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	done := make(chan struct{})
	return &terminal{
		out:      &printer{w: out},
		lines:    readLines(in, done),
		done:     done,
		finished: make(chan struct{}),
	}
}

func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" || err == nil {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

func (t *terminal) stop() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

func (t *terminal) finish() {
	t.once.Do(func() { close(t.finished) })
}

func (t *terminal) ConfirmSubmit(ctx context.Context, summary session.Summary) (bool, error) {
	t.out.Println()
	t.out.Println("Submit test?")
	t.out.Printf("  Answered:   %d of %d\n", summary.Answered, summary.Total)
	t.out.Printf("  Unanswered: %d\n", summary.Unanswered)
	t.out.Printf("  Flagged:    %d\n", summary.Flagged)
	return t.promptYesNo(ctx, "Submit now? (yes/no): ")
}

func (t *terminal) promptYesNo(ctx context.Context, prompt string) (bool, error) {
	for {
		t.out.Print(prompt)
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case line, ok := <-t.lines:
			if !ok {
				return false, io.EOF
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return true, nil
			case "n", "no":
				return false, nil
			default:
				t.out.Println("Please answer yes or no.")
			}
		}
	}
}

func (t *terminal) ShowResult(testID string, result examclient.Result) {
	printResult(t.out, testID, result)
	t.finish()
}

func (t *terminal) Redirect(path string) {
	t.out.Printf("Returning to %s\n", path)
	t.finish()
}

func (t *terminal) Notify(level session.NoticeLevel, message string) {
	switch level {
	case session.NoticeError:
		t.out.Printf("\nerror: %s\n", message)
	case session.NoticeWarning:
		t.out.Printf("\n! %s\n", message)
	default:
		t.out.Printf("\n%s\n", message)
	}
}
