package log

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type slogLogger struct {
	h                 slog.Handler
	attrs             []slog.Attr
	includeErrorLinks bool
	maxErrorLinks     int
}

func newSlog(opts Options) (*slogLogger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.StacktraceLevel == 0 {
		opts.StacktraceLevel = slog.LevelError
	}
	if opts.MaxErrorLinks <= 0 {
		opts.MaxErrorLinks = 8
	}

	ho := &slog.HandlerOptions{Level: opts.Level, AddSource: true}
	var h slog.Handler
	if opts.JsonFormat {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	h = stackHandler{next: traceHandler{next: h}, level: opts.StacktraceLevel}

	base := []slog.Attr{slog.String("app", opts.App)}
	for _, a := range []struct{ k, v string }{
		{"version", opts.Version},
		{"commit", opts.Commit},
		{"build_id", opts.BuildId},
	} {
		if a.v != "" {
			base = append(base, slog.String(a.k, a.v))
		}
	}

	return &slogLogger{
		h:                 h,
		attrs:             base,
		includeErrorLinks: opts.IncludeErrorLinks,
		maxErrorLinks:     opts.MaxErrorLinks,
	}, nil
}

// With copies the attribute slice so derived loggers can be shared
// across goroutines.
func (s *slogLogger) With(kv ...any) Logger {
	next := make([]slog.Attr, 0, len(s.attrs)+len(kv)/2)
	next = append(next, s.attrs...)
	next = appendKV(next, kv)
	c := *s
	c.attrs = next
	return &c
}

func (s *slogLogger) Debug(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelDebug, msg, kv)
}

func (s *slogLogger) Info(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelInfo, msg, kv)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, kv ...any) {
	s.log(ctx, slog.LevelWarn, msg, kv)
}

func (s *slogLogger) Error(ctx context.Context, err error, msg string, kv ...any) {
	if err != nil {
		kv = append(kv, errorAttrs(err, s.includeErrorLinks, s.maxErrorLinks)...)
	}
	s.log(ctx, slog.LevelError, msg, kv)
}

func (s *slogLogger) Sync() error { return nil }

// callerSkip skips runtime.Callers, log and the exported level method.
const callerSkip = 3

func (s *slogLogger) log(ctx context.Context, lvl slog.Level, msg string, kv []any) {
	if !s.h.Enabled(ctx, lvl) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(callerSkip, pcs[:])

	r := slog.NewRecord(time.Now(), lvl, msg, pcs[0])
	r.AddAttrs(s.attrs...)
	r.AddAttrs(appendKV(nil, kv)...)
	_ = s.h.Handle(ctx, r)
}

// appendKV converts alternating key/value pairs; non-string keys and a
// trailing odd value are dropped.
func appendKV(dst []slog.Attr, kv []any) []slog.Attr {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			dst = append(dst, slog.Any(k, kv[i+1]))
		}
	}
	return dst
}

// traceHandler adds trace_id and span_id from the context span.
type traceHandler struct{ next slog.Handler }

func (h traceHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.next.Enabled(ctx, lvl)
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{next: h.next.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{next: h.next.WithGroup(name)}
}

// stackHandler adds a "stack" attribute at or above level, preferring
// the stack captured by xerrors on the "err" attribute.
type stackHandler struct {
	next  slog.Handler
	level slog.Level
}

func (h stackHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.next.Enabled(ctx, lvl)
}

func (h stackHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		var pcs []uintptr
		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "err" {
				return true
			}
			if hs, ok := a.Value.Any().(hasStack); ok {
				pcs = hs.StackPCs()
			}
			return false
		})
		if len(pcs) == 0 {
			pcs = make([]uintptr, 64)
			// skip runtime.Callers and Handle
			pcs = pcs[:runtime.Callers(2, pcs)]
		}
		r.AddAttrs(slog.String("stack", renderStack(pcs)))
	}
	return h.next.Handle(ctx, r)
}

func (h stackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return stackHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h stackHandler) WithGroup(name string) slog.Handler {
	return stackHandler{next: h.next.WithGroup(name), level: h.level}
}
