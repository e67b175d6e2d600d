package opshttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/keithlinneman/zuga-web/internal/health"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

const defaultPort = 9000

// NewHandler builds the ops mux: /-/healthy, /-/ready, /metrics,
// /-/content and, when enabled, /debug/pprof/.
func NewHandler(opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/-/healthy", health.HealthzHandler(opts.Health))
	mux.Handle("/-/ready", health.ReadyzHandler(opts.Readiness))

	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	if opts.Content != nil {
		mux.Handle("/-/content", opts.Content)
	}

	if opts.EnablePprof {
		RegisterPprof(mux)
	} else {
		mux.HandleFunc("/debug/pprof/", http.NotFound)
	}
	return mux
}

// Start serves the ops listener in the background and returns its stop func.
func Start(ctx context.Context, L log.Logger, opts Options) (func(context.Context) error, error) {
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// pprof profile runs for 30s by default
		WriteTimeout:   40 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Wrapf(err, "listen ops http on %s", addr)
	}

	go func() {
		L.Info(ctx, "ops http server listening", "addr", addr, "pprof", opts.EnablePprof)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			L.Error(ctx, err, "ops http server error")
		}
	}()

	var once sync.Once
	stop := func(sctx context.Context) (retErr error) {
		once.Do(func() {
			L.Info(sctx, "ops http server shutting down")
			c, cancel := context.WithTimeout(sctx, 5*time.Second)
			defer cancel()
			retErr = srv.Shutdown(c)
		})
		return retErr
	}
	return stop, nil
}
