package examservice

import "sync"

// testCache holds loaded tests by id. Entries are dropped whenever a test is
// written through the service.
type testCache struct {
	mu      sync.RWMutex
	entries map[string]cachedTest
}

type cachedTest struct {
	test      Test
	questions []Question
}

func newTestCache() *testCache {
	return &testCache{entries: make(map[string]cachedTest)}
}

func (c *testCache) get(testID string) (Test, []Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[testID]
	if !ok {
		return Test{}, nil, false
	}
	// Callers may reorder or edit the slice; hand out a copy.
	return entry.test, append([]Question(nil), entry.questions...), true
}

func (c *testCache) set(test Test, questions []Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[test.ID] = cachedTest{test: test, questions: append([]Question(nil), questions...)}
}

func (c *testCache) invalidate(testID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, testID)
}
