package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"careerpath/internal/examclient"
)

func TestHandleKeyShortcuts(t *testing.T) {
	h := newHarness()
	c := h.started(t, "5")

	assert.True(t, c.HandleKey(KeyEvent{Key: "2"}))
	assert.True(t, c.HandleKey(KeyEvent{Key: "F"}))
	assert.True(t, c.HandleKey(KeyEvent{Key: "ArrowRight"}))
	assert.True(t, c.HandleKey(KeyEvent{Key: "4"}))
	assert.True(t, c.HandleKey(KeyEvent{Key: " "}))
	assert.True(t, c.HandleKey(KeyEvent{Key: "f"}))
	assert.True(t, c.HandleKey(KeyEvent{Key: "ArrowLeft"}))
	assert.True(t, c.HandleKey(KeyEvent{Key: "1"}))

	state := c.Snapshot()
	assert.Equal(t, map[examclient.QuestionID]examclient.Option{
		11: examclient.OptionB,
		12: examclient.OptionA,
	}, state.Answers)
	assert.Equal(t, map[examclient.QuestionID]bool{11: true, 13: true}, state.Flagged)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestHandleKeyIgnoresModifiersAndUnknownKeys(t *testing.T) {
	h := newHarness()
	c := h.started(t, "5")

	assert.False(t, c.HandleKey(KeyEvent{Key: "1", Ctrl: true}))
	assert.False(t, c.HandleKey(KeyEvent{Key: "f", Meta: true}))
	assert.False(t, c.HandleKey(KeyEvent{Key: "ArrowRight", Alt: true}))
	assert.False(t, c.HandleKey(KeyEvent{Key: "5"}))
	assert.False(t, c.HandleKey(KeyEvent{Key: "Enter"}))
	assert.False(t, c.HandleKey(KeyEvent{}))

	state := c.Snapshot()
	assert.Empty(t, state.Answers)
	assert.Empty(t, state.Flagged)
	assert.Zero(t, state.CurrentIndex)
}

func TestSpaceOnLastQuestionDoesNotSubmit(t *testing.T) {
	h := newHarness()
	c := h.started(t, "5")
	require.True(t, c.Navigate(2))

	assert.False(t, c.HandleKey(KeyEvent{Key: "Space"}))
	assert.False(t, c.HandleKey(KeyEvent{Key: "ArrowRight"}))
	assert.Empty(t, h.api.Submissions())
	assert.Empty(t, h.dialog.asked)
	assert.Equal(t, 2, c.Snapshot().CurrentIndex)
}

func TestEscapeLeavesFullscreen(t *testing.T) {
	h := newHarness()
	c := h.started(t, "5")

	assert.False(t, c.HandleKey(KeyEvent{Key: "Escape"}))
	require.True(t, c.ToggleFullscreen())
	assert.True(t, c.HandleKey(KeyEvent{Key: "Escape"}))
	assert.False(t, c.Snapshot().Fullscreen)
}

func TestSystemClockStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ticks := make(chan struct{}, 16)
	cancel := SystemClock{}.Every(5*time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatalf("no tick delivered")
	}
	cancel()
	cancel()
}

func TestControllerCloseReleasesTimerGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness()
	deps := h.deps()
	deps.Clock = SystemClock{}

	c, err := Load(context.Background(), "5", deps)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	c.Close()
}
