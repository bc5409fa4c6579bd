package session

import (
	"sync"
	"time"
)

// Clock schedules the countdown. Every calls fn once per interval until the
// returned cancel func runs; cancel must not block on fn.
type Clock interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

type SystemClock struct{}

func (SystemClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// timerHandle identifies one countdown run. Ticks delivered for a handle that
// is no longer c.timer are dropped.
type timerHandle struct {
	cancel func()
}

// startTimerLocked replaces any running countdown. Callers hold c.mu.
func (c *Controller) startTimerLocked() {
	c.stopTimerLocked()

	handle := &timerHandle{}
	c.timer = handle
	handle.cancel = c.clock.Every(tickInterval, func() {
		c.tick(handle)
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer == nil {
		return
	}
	if c.timer.cancel != nil {
		c.timer.cancel()
	}
	c.timer = nil
}

func (c *Controller) tick(handle *timerHandle) {
	c.mu.Lock()
	if c.timer != handle || !c.started || c.submitting || c.submitted {
		c.mu.Unlock()
		return
	}

	if c.timeLeft > 0 {
		c.timeLeft--
	}
	c.persistTimeLocked()

	if c.timeLeft > 0 {
		c.mu.Unlock()
		return
	}

	c.stopTimerLocked()
	c.mu.Unlock()

	c.log.Info("time is up, submitting automatically", "test_id", c.testID)
	c.autoSubmit()
}
