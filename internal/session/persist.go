package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"careerpath/internal/examclient"
)

// hydrate restores a snapshot saved under this test id. Entries that no
// longer match the fetched questions are dropped; an unreadable key is
// ignored rather than failing the load.
func (c *Controller) hydrate(ctx context.Context) {
	if raw, ok := c.readKey(ctx, c.keys.Answers); ok {
		var saved map[string]string
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			c.log.Warn("discarding unreadable saved answers", "err", err)
		}
		for rawID, rawOption := range saved {
			id, err := examclient.ParseQuestionID(rawID)
			if err != nil {
				continue
			}
			option, ok := examclient.ParseOption(rawOption)
			if !ok {
				continue
			}
			if _, known := c.position[id]; known {
				c.answers[id] = option
			}
		}
	}

	if raw, ok := c.readKey(ctx, c.keys.Flagged); ok {
		var saved []examclient.QuestionID
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			c.log.Warn("discarding unreadable saved flags", "err", err)
		}
		for _, id := range saved {
			if _, known := c.position[id]; known {
				c.flagged[id] = struct{}{}
			}
		}
	}

	if raw, ok := c.readKey(ctx, c.keys.TimeLeft); ok {
		seconds, err := strconv.Atoi(strings.TrimSpace(raw))
		switch {
		case err != nil:
			c.log.Warn("discarding unreadable saved time", "value", raw)
		case seconds < 0:
			c.timeLeft = 0
		case seconds < c.timeLeft:
			c.timeLeft = seconds
		}
	}
}

func (c *Controller) readKey(ctx context.Context, key string) (string, bool) {
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("reading saved attempt failed", "key", key, "err", err)
		return "", false
	}
	return value, ok
}

func (c *Controller) persistAnswersLocked() {
	saved := make(map[string]string, len(c.answers))
	for id, option := range c.answers {
		saved[id.String()] = string(option)
	}
	c.writeJSON(c.keys.Answers, saved)
}

func (c *Controller) persistFlaggedLocked() {
	c.writeJSON(c.keys.Flagged, c.flaggedIDsLocked())
}

func (c *Controller) persistTimeLocked() {
	c.writeKey(c.keys.TimeLeft, strconv.Itoa(c.timeLeft))
}

func (c *Controller) writeJSON(key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("encoding attempt snapshot failed", "key", key, "err", err)
		return
	}
	c.writeKey(key, string(encoded))
}

// writeKey is fire-and-forget: a failed write is logged and the attempt
// carries on from memory.
func (c *Controller) writeKey(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultPersistTimeout)
	defer cancel()
	if err := c.store.Set(ctx, key, value); err != nil {
		c.log.Warn("saving attempt snapshot failed", "key", key, "err", err)
	}
}

func (c *Controller) clearSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultPersistTimeout)
	defer cancel()
	if err := c.store.Delete(ctx, c.keys.All()...); err != nil {
		c.log.Error("clearing attempt snapshot failed", "err", err)
	}
}
