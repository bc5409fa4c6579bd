package store

import (
	"context"
	"fmt"
	"strings"
)

// Store is the local key/value cache an attempt is mirrored into so a reload
// can resume it. Values are opaque strings.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every given key in one step. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// AttemptKeys names the three entries kept for one test.
type AttemptKeys struct {
	Answers  string
	Flagged  string
	TimeLeft string
}

func Keys(testID string) AttemptKeys {
	id := strings.TrimSpace(testID)
	return AttemptKeys{
		Answers:  fmt.Sprintf("test_%s_answers", id),
		Flagged:  fmt.Sprintf("test_%s_flagged", id),
		TimeLeft: fmt.Sprintf("test_%s_time_left", id),
	}
}

func (k AttemptKeys) All() []string {
	return []string{k.Answers, k.Flagged, k.TimeLeft}
}

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Options struct {
	Backend    string
	SQLitePath string
	RedisURL   string
	RedisTTL   string
}

// Open builds the backend named in opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return NewSQLite(opts.SQLitePath)
	case BackendRedis:
		return NewRedis(ctx, opts.RedisURL, opts.RedisTTL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
