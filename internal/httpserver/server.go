package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/keithlinneman/zuga-web/internal/httpmw"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

const (
	DefaultPort              = 8080
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20

	// the site is read-only; nobody needs to send a body
	maxRequestBody = 1024
)

// NewHandler builds the public handler: chi router with the registered
// routes wrapped in the middleware stack, outermost first.
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Compress(5, "text/html", "text/css", "application/json", "image/svg+xml"),
		httpmw.AnnotateHTTPRoute,
		httpmw.AccessLog(),
		httpmw.MaxBody(maxRequestBody),
	)
	for _, register := range opts.Routes {
		if register != nil {
			register(r)
		}
	}
	if opts.NotFound != nil {
		r.NotFound(opts.NotFound.ServeHTTP)
		r.MethodNotAllowed(opts.NotFound.ServeHTTP)
	}

	var recoverMW httpmw.Middleware
	if opts.UseRecoverMW {
		recoverMW = httpmw.Recover(opts.Logger, opts.OnPanic)
	}
	var contentMW httpmw.Middleware
	if opts.ContentInfo != nil {
		contentMW = httpmw.ContentHeaders(opts.ContentInfo)
	}

	return httpmw.Chain(r,
		httpmw.SecurityHeaders,
		recoverMW,
		httpmw.RequestID("X-Request-Id"),
		httpmw.ClientIPWithOptions(opts.ClientIPOpts),
		opts.RateLimitMW,
		traced,
		httpmw.TraceResponseHeaders("X-Trace-Id", "X-Span-Id"),
		contentMW,
		opts.MetricsMW,
		httpmw.WithLogger(opts.Logger),
	)
}

// traced starts a server span for page and API requests. Probes and
// static assets are not traced.
func traced(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool { return shouldTrace(r.URL.Path) }),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithPublicEndpointFn(func(*http.Request) bool { return true }),
	)
}

func shouldTrace(p string) bool {
	switch p {
	case "/favicon.ico", "/robots.txt", "/-/healthy", "/-/ready":
		return false
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".css", ".js", ".png", ".jpg", ".jpeg", ".webp", ".svg", ".ico", ".woff", ".woff2":
		return false
	}
	return true
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		MaxHeaderBytes:    DefaultMaxHeaderBytes,
	}
}

// Start serves the public site in the background and returns its stop func.
func Start(ctx context.Context, opts Options) (func(context.Context) error, error) {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	addr := fmt.Sprintf(":%d", port)
	srv := NewServer(addr, NewHandler(opts))

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, xerrors.Wrapf(err, "listen http on %s", addr)
	}

	go func() {
		opts.Logger.Info(ctx, "http server listening", "addr", addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.Logger.Error(ctx, err, "http server error")
		}
	}()

	var once sync.Once
	stop := func(sctx context.Context) (retErr error) {
		once.Do(func() {
			opts.Logger.Info(sctx, "http server shutting down")
			c, cancel := context.WithTimeout(sctx, 10*time.Second)
			defer cancel()
			retErr = srv.Shutdown(c)
		})
		return retErr
	}
	return stop, nil
}
