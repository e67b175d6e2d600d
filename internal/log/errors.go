package log

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

type hasPC interface{ PC() uintptr }

type hasStack interface{ StackPCs() []uintptr }

// fieldError is implemented by validation errors that name the offending
// fields, such as content.SchemaValidationError.
type fieldError interface{ FieldNames() []string }

// errorAttrs are the key/values Error appends for err.
func errorAttrs(err error, links bool, maxLinks int) []any {
	surface, root := classifyTypes(err)
	kv := []any{"err", err, "error_type", surface, "cause_type", root}
	if chain := errorChain(err); len(chain) > 1 {
		kv = append(kv, "error_chain", chain)
	}
	var fe fieldError
	if errors.As(err, &fe) {
		kv = append(kv, "invalid_fields", fe.FieldNames())
	}
	if links {
		kv = append(kv, "error_links", chainLinks(err, maxLinks))
	}
	return kv
}

// errorChain lists the distinct messages down the Unwrap chain, plus the
// members of a joined error.
func errorChain(err error) []string {
	var out []string
	var prev string
	add := func(msg string) {
		if msg != prev {
			out = append(out, msg)
			prev = msg
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		add(e.Error())
	}
	if m, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range m.Unwrap() {
			add(e.Error())
		}
	}
	return out
}

// chainLinks locates each wrap in the chain by file and line, up to max.
func chainLinks(err error, max int) []map[string]any {
	var links []map[string]any
	for depth, e := 0, err; e != nil && (max <= 0 || depth < max); depth, e = depth+1, errors.Unwrap(e) {
		link := map[string]any{"msg": e.Error()}
		var fr runtime.Frame
		var ok bool
		switch x := e.(type) {
		case hasPC:
			fr, ok = frameAt(x.PC())
		case hasStack:
			fr, ok = firstCallerFrame(x.StackPCs())
		}
		if ok {
			link["func"], link["file"], link["line"] = fr.Function, fr.File, fr.Line
		}
		if depth == 0 || ok {
			links = append(links, link)
		}
	}
	return links
}

// internalFrame reports frames belonging to the runtime or the logging
// and error plumbing itself.
func internalFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") ||
		strings.HasPrefix(fn, "log/slog.") ||
		strings.Contains(fn, "/internal/log.") ||
		strings.Contains(fn, "/internal/xerrors.")
}

// renderStack prints frames as "func\n\tfile:line", starting at the first
// caller outside the logging plumbing and stopping at the runtime.
func renderStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs)
	var b strings.Builder
	started := false
	for {
		fr, more := frames.Next()
		if started && strings.HasPrefix(fr.Function, "runtime.") {
			break
		}
		if !started && !internalFrame(fr.Function) {
			started = true
		}
		if started {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", fr.Function, fr.File, fr.Line)
		}
		if !more {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func frameAt(pc uintptr) (runtime.Frame, bool) {
	if pc == 0 {
		return runtime.Frame{}, false
	}
	fr, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return fr, true
}

func firstCallerFrame(pcs []uintptr) (runtime.Frame, bool) {
	if len(pcs) == 0 {
		return runtime.Frame{}, false
	}
	frames := runtime.CallersFrames(pcs)
	for {
		fr, more := frames.Next()
		if !internalFrame(fr.Function) {
			return fr, true
		}
		if !more {
			return runtime.Frame{}, false
		}
	}
}

// classifyTypes names the first non-wrapper type in the chain (surface)
// and the innermost one (root).
func classifyTypes(err error) (surface, root string) {
	if err == nil {
		return "", ""
	}
	var last error
	for e := err; e != nil; e = errors.Unwrap(e) {
		last = e
		if surface != "" {
			continue
		}
		t := reflect.TypeOf(e)
		u := t
		for u.Kind() == reflect.Pointer {
			u = u.Elem()
		}
		if strings.Contains(u.PkgPath(), "/internal/xerrors") {
			continue
		}
		if u.PkgPath() == "fmt" && u.Name() == "wrapError" {
			continue
		}
		surface = t.String()
	}
	if surface == "" {
		surface = fmt.Sprintf("%T", err)
	}
	return surface, fmt.Sprintf("%T", last)
}
