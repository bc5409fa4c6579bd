package cli

import (
	"fmt"
	"strconv"
	"strings"

	"careerpath/internal/examclient"
	"careerpath/internal/session"
)

func printHelp(out *printer) {
	out.Println("Commands:")
	out.Println("  start                 begin the test and the countdown")
	out.Println("  1-4 or a-d            choose an option for the current question")
	out.Println("  f                     flag or unflag the current question")
	out.Println("  next | prev           move between questions (empty line = next)")
	out.Println("  goto <n>              jump to question n")
	out.Println("  clear                 remove the answer to the current question")
	out.Println("  fullscreen | esc      enter or leave fullscreen")
	out.Println("  status                show time left and progress")
	out.Println("  submit                submit your answers")
	out.Println("  exit                  leave and keep your progress")
}

func printOverview(out *printer, c *session.Controller) {
	test := c.Test()
	title := test.Title
	if strings.TrimSpace(title) == "" {
		title = "Test " + c.TestID()
	}

	out.Println(title)
	if test.Category != "" || test.Difficulty != "" {
		out.Printf("%s %s\n", test.Category, test.Difficulty)
	}
	out.Printf("Questions: %d  Duration: %d min  Total marks: %s  Passing score: %s%%\n",
		len(c.Questions()),
		test.DurationMinutes,
		formatScore(test.TotalMarks),
		formatScore(test.PassingScore),
	)

	progress := c.Progress()
	if progress.Answered > 0 || progress.Flagged > 0 || c.TimeLeft() < test.DurationMinutes*60 {
		out.Printf("Resuming: %d answered, %d flagged, %s left.\n",
			progress.Answered, progress.Flagged, formatClock(c.TimeLeft()))
	}
	out.Println()
}

func printQuestion(out *printer, c *session.Controller) {
	state := c.Snapshot()
	index, question := c.Current()
	total := len(c.Questions())

	var header strings.Builder
	fmt.Fprintf(&header, "Q%d/%d  [%s]", index+1, total, formatClock(state.TimeLeft))
	if state.Flagged[question.ID] {
		header.WriteString("  (flagged)")
	}
	if question.Marks > 0 {
		fmt.Fprintf(&header, "  %s marks", formatScore(question.Marks))
	}

	out.Println()
	out.Println(header.String())
	out.Printf("%s\n", question.Text)
	if question.Image != "" {
		out.Printf("[image: %s]\n", question.Image)
	}
	out.Println()

	selected, answered := state.Answers[question.ID]
	for _, option := range examclient.Options {
		marker := " "
		if answered && option == selected {
			marker = "*"
		}
		out.Printf("%s %d) %s. %s\n", marker, option.Index()+1, strings.ToUpper(string(option)), question.OptionText(option))
	}
}

func printStatus(out *printer, c *session.Controller) {
	state := c.Snapshot()
	progress := c.Progress()

	switch {
	case state.Submitted:
		out.Println("Submitted.")
		return
	case !state.Started:
		out.Printf("Not started. %s available.\n", formatClock(state.TimeLeft))
	default:
		out.Printf("Time left: %s\n", formatClock(state.TimeLeft))
	}
	out.Printf("Answered %d of %d, flagged %d.\n", progress.Answered, progress.Total, progress.Flagged)

	if progress.Flagged == 0 {
		return
	}
	numbers := make([]string, 0, progress.Flagged)
	for idx, question := range c.Questions() {
		if state.Flagged[question.ID] {
			numbers = append(numbers, strconv.Itoa(idx+1))
		}
	}
	out.Printf("Flagged questions: %s\n", strings.Join(numbers, ", "))
}

func printResult(out *printer, testID string, result examclient.Result) {
	summary := result.Summary()

	out.Println()
	out.Printf("Result for test %s\n", testID)
	if summary.TotalMarks > 0 {
		out.Printf("Score: %s/%s\n", formatScore(summary.Score), formatScore(summary.TotalMarks))
	}
	if summary.Percentage > 0 {
		out.Printf("Percentage: %s%%\n", formatScore(summary.Percentage))
	}
	if summary.Passed != nil {
		if *summary.Passed {
			out.Println("Passed")
		} else {
			out.Println("Not passed")
		}
	}
	if summary.Message != "" {
		out.Println(summary.Message)
	}
	if summary.TotalMarks == 0 && summary.Passed == nil && summary.Message == "" {
		out.Println(string(result.Body))
	}
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
