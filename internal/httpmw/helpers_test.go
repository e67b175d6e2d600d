package httpmw

import (
	"context"
	"sync"

	"github.com/keithlinneman/zuga-web/internal/log"
)

type entry struct {
	level string
	msg   string
	err   error
	kv    []any
}

// captureLogger records entries, including fields added via With.
type captureLogger struct {
	mu      *sync.Mutex
	entries *[]entry
	fields  []any
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{mu: &sync.Mutex{}, entries: &[]entry{}}
}

func (c *captureLogger) With(kv ...any) log.Logger {
	f := append(append([]any{}, c.fields...), kv...)
	return &captureLogger{mu: c.mu, entries: c.entries, fields: f}
}

func (c *captureLogger) add(level string, err error, msg string, kv []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := append(append([]any{}, c.fields...), kv...)
	*c.entries = append(*c.entries, entry{level: level, msg: msg, err: err, kv: all})
}

func (c *captureLogger) Debug(_ context.Context, msg string, kv ...any) { c.add("debug", nil, msg, kv) }
func (c *captureLogger) Info(_ context.Context, msg string, kv ...any)  { c.add("info", nil, msg, kv) }
func (c *captureLogger) Warn(_ context.Context, msg string, kv ...any)  { c.add("warn", nil, msg, kv) }
func (c *captureLogger) Error(_ context.Context, err error, msg string, kv ...any) {
	c.add("error", err, msg, kv)
}
func (c *captureLogger) Sync() error { return nil }

func (c *captureLogger) all() []entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entry(nil), *c.entries...)
}

func (e entry) field(key string) (any, bool) {
	for i := 0; i+1 < len(e.kv); i += 2 {
		if k, ok := e.kv[i].(string); ok && k == key {
			return e.kv[i+1], true
		}
	}
	return nil, false
}
