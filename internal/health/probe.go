package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

// Probe is evaluated at request time.
type Probe interface{ Check(context.Context) error }

// CheckFunc adapts a function into a Probe.
type CheckFunc func(context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// Fixed always passes or always fails with reason.
func Fixed(ok bool, reason string) CheckFunc {
	if ok {
		return func(context.Context) error { return nil }
	}
	if reason == "" {
		reason = "unhealthy"
	}
	return func(context.Context) error { return xerrors.New(reason) }
}

// All passes when every non-nil probe passes and returns the first failure.
func All(ps ...Probe) CheckFunc {
	return func(ctx context.Context) error {
		for _, p := range ps {
			if p == nil {
				continue
			}
			if err := p.Check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Timeout bounds a probe; a probe still running after d fails.
func Timeout(p Probe, d time.Duration) CheckFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- p.Check(ctx) }()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return xerrors.Wrap(ctx.Err(), "probe timed out")
		}
	}
}

// Flag is a probe that fails with its reason until Set is called.
type Flag struct {
	up     atomic.Bool
	reason string
}

func NewFlag(reason string) *Flag {
	if reason == "" {
		reason = "not ready"
	}
	return &Flag{reason: reason}
}

func (f *Flag) Set()        { f.up.Store(true) }
func (f *Flag) IsSet() bool { return f.up.Load() }

func (f *Flag) Check(context.Context) error {
	if f.up.Load() {
		return nil
	}
	return xerrors.New(f.reason)
}

// ShutdownGate fails readiness while the server drains, so the load
// balancer stops routing before in-flight requests finish.
type ShutdownGate struct {
	draining atomic.Bool
	reason   atomic.Value
}

func (g *ShutdownGate) Set(reason string) {
	g.reason.Store(reason)
	g.draining.Store(true)
}

func (g *ShutdownGate) Probe() CheckFunc {
	return func(context.Context) error {
		if !g.draining.Load() {
			return nil
		}
		r, _ := g.reason.Load().(string)
		if r == "" {
			r = "draining"
		}
		return xerrors.New(r)
	}
}
