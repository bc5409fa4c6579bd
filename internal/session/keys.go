package session

import "careerpath/internal/examclient"

// KeyEvent is one key press from the front-end. Key uses DOM-style names:
// "1".."4", "f", "ArrowLeft", "ArrowRight", " " or "Space", "Escape".
type KeyEvent struct {
	Key  string
	Ctrl bool
	Meta bool
	Alt  bool
}

// HandleKey applies a keyboard shortcut and reports whether it was used.
// Shortcuts only work during a running attempt and never while a modifier is
// held. Unknown keys are ignored.
func (c *Controller) HandleKey(e KeyEvent) bool {
	if e.Ctrl || e.Meta || e.Alt {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.submitting || c.submitted {
		return false
	}

	switch e.Key {
	case "1", "2", "3", "4":
		option := examclient.Options[int(e.Key[0]-'1')]
		return c.selectAnswerLocked(c.questions[c.current].ID, option) == nil
	case "f", "F":
		return c.toggleFlagLocked(c.questions[c.current].ID) == nil
	case "ArrowLeft":
		return c.navigateLocked(c.current - 1)
	case "ArrowRight", " ", "Space":
		return c.navigateLocked(c.current + 1)
	case "Escape", "Esc":
		if !c.fullscreen {
			return false
		}
		c.fullscreen = false
		return true
	}
	return false
}
