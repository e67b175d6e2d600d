// Package log is the structured logger used across zuga-web: a small
// Logger interface over log/slog with trace ids, error chains and
// stacks attached to every record.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Logger interface {
	With(kv ...any) Logger

	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, err error, msg string, kv ...any)

	Sync() error
}

type Options struct {
	App     string
	Version string
	Commit  string
	BuildId string

	Level slog.Level
	// StacktraceLevel and above get a "stack" attribute. Zero means error.
	StacktraceLevel   slog.Level
	JsonFormat        bool
	IncludeErrorLinks bool
	MaxErrorLinks     int
	// Writer defaults to stdout.
	Writer io.Writer
}

func New(opts Options) (Logger, error) { return newSlog(opts) }

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (valid levels are debug|info|warn|error)", s)
}
