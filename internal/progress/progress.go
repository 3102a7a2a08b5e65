// Package progress carries diagnostic output from long-running wallet
// workflows to whoever wants to display it. Workflows are handed a Reporter
// and call it zero or more times; nothing is captured through a shared sink.
package progress

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Reporter receives one diagnostic line at a time.
type Reporter interface {
	Report(line string)
}

// Func adapts a plain function to a Reporter.
type Func func(line string)

// Report implements Reporter.
func (f Func) Report(line string) { f(line) }

// Discard ignores every line.
var Discard Reporter = Func(func(string) {})

// Line is one captured diagnostic line. Key is a stable ordinal assigned in
// arrival order.
type Line struct {
	Key  int    `json:"key"`
	Text string `json:"text"`
}

// Capture is a Reporter that appends lines to an in-memory, append-only
// sequence. Safe for concurrent use.
type Capture struct {
	mu    sync.Mutex
	next  int
	lines []Line
}

// Report implements Reporter.
func (c *Capture) Report(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, Line{Key: c.next, Text: line})
	c.next++
}

// Lines returns a copy of everything captured so far.
func (c *Capture) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Tee fans each line out to every given reporter.
func Tee(reporters ...Reporter) Reporter {
	return Func(func(line string) {
		for _, r := range reporters {
			r.Report(line)
		}
	})
}

// WithoutPrefix drops lines starting with prefix and forwards the rest.
// Used to suppress noisy per-iteration output during recovery.
func WithoutPrefix(r Reporter, prefix string) Reporter {
	return Func(func(line string) {
		if strings.HasPrefix(line, prefix) {
			return
		}
		r.Report(line)
	})
}

// Logger forwards every line to the given logger at info level.
func Logger(log *zap.SugaredLogger) Reporter {
	return Func(func(line string) {
		log.Info(line)
	})
}
