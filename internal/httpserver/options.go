package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/zuga-web/internal/httpmw"
	"github.com/keithlinneman/zuga-web/internal/log"
)

type Options struct {
	Logger log.Logger
	Port   int

	UseRecoverMW bool
	OnPanic      func()

	MetricsMW    func(http.Handler) http.Handler
	RateLimitMW  func(http.Handler) http.Handler
	ClientIPOpts httpmw.ClientIPOptions
	ContentInfo  httpmw.ContentInfo

	// Routes register handlers on the public router, in order.
	Routes []func(chi.Router)
	// NotFound handles unmatched paths and methods; chi's default when nil.
	NotFound http.Handler
}
