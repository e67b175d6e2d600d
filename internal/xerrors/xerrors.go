// Package xerrors records where errors are created and wrapped so the
// logger can print a stack and a file:line per wrap.
//
// New, Newf, WithStack and EnsureTrace capture a full stack. Wrap and
// Wrapf record only the single frame of their caller.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 64

type withStack struct {
	err error
	pcs []uintptr
}

func (w *withStack) Error() string       { return w.err.Error() }
func (w *withStack) Unwrap() error       { return w.err }
func (w *withStack) StackPCs() []uintptr { return w.pcs }

// stacked wraps err with the stack of the caller skip frames above the
// exported function.
func stacked(err error, skip int) error {
	if err == nil {
		return nil
	}
	pcs := make([]uintptr, maxStackDepth)
	// runtime.Callers, stacked, exported func
	n := runtime.Callers(3+skip, pcs)
	return &withStack{err: err, pcs: pcs[:n]}
}

func New(msg string) error { return stacked(errors.New(msg), 0) }

func Newf(format string, args ...any) error { return stacked(fmt.Errorf(format, args...), 0) }

// WithStack attaches the caller's stack to err; nil stays nil.
func WithStack(err error) error { return stacked(err, 0) }

// EnsureTrace attaches a stack unless err already carries one.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	var hs interface{ StackPCs() []uintptr }
	if errors.As(err, &hs) && len(hs.StackPCs()) > 0 {
		return err
	}
	return stacked(err, 0)
}

type wrap struct {
	err error
	msg string
	pc  uintptr
}

func (w *wrap) Error() string { return w.msg + ": " + w.err.Error() }
func (w *wrap) Unwrap() error { return w.err }
func (w *wrap) PC() uintptr   { return w.pc }

func callerPC() uintptr {
	var pcs [1]uintptr
	// runtime.Callers, callerPC, Wrap/Wrapf
	if runtime.Callers(3, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// Wrap prefixes err with msg; nil stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrap{err: err, msg: msg, pc: callerPC()}
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrap{err: err, msg: fmt.Sprintf(format, args...), pc: callerPC()}
}
