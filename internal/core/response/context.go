package response

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Context is the state shared between the capture threads and the run loop:
// the event queue, the allow-list, the stop signal and the timestamp clock.
// It is built once per process and passed by reference.
type Context struct {
	queue   *Queue
	allowed atomic.Pointer[map[string]struct{}]
	clock   func() float64

	stopped  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewContext returns a context with an empty queue and no allow-list. A nil
// clock falls back to monotonic seconds since the context was created.
func NewContext(clock func() float64) *Context {
	if clock == nil {
		epoch := time.Now()
		clock = func() float64 {
			return time.Since(epoch).Seconds()
		}
	}
	c := &Context{
		queue:  NewQueue(),
		clock:  clock,
		stopCh: make(chan struct{}),
	}
	empty := map[string]struct{}{}
	c.allowed.Store(&empty)
	return c
}

func (c *Context) Queue() *Queue {
	return c.queue
}

func (c *Context) Now() float64 {
	return c.clock()
}

// SetAllowedResponses replaces the allow-list. Tokens are trimmed,
// upper-cased and lose one leading "KEY_". An empty list disables filtering.
// The active tokens are returned sorted.
//
// Callers must only change the allow-list between trials.
func (c *Context) SetAllowedResponses(tokens []string) []string {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		normalized := NormalizeToken(token)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	c.allowed.Store(&set)
	return sortedTokens(set)
}

// AllowedResponses returns the active allow-list, sorted.
func (c *Context) AllowedResponses() []string {
	return sortedTokens(*c.allowed.Load())
}

// Allows reports whether a token passes the allow-list.
func (c *Context) Allows(token string) bool {
	set := *c.allowed.Load()
	if len(set) == 0 {
		return true
	}
	_, ok := set[token]
	return ok
}

// Stop sets the stop signal. It is safe to call more than once.
func (c *Context) Stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		close(c.stopCh)
	})
}

func (c *Context) Stopped() bool {
	return c.stopped.Load()
}

// Done is closed once Stop has been called.
func (c *Context) Done() <-chan struct{} {
	return c.stopCh
}

func NormalizeToken(token string) string {
	upper := strings.ToUpper(strings.TrimSpace(token))
	return strings.TrimPrefix(upper, "KEY_")
}

func sortedTokens(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for token := range set {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
