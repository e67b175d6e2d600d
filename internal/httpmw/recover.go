package httpmw

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

// Recover turns a handler panic into a logged 500. onPanic, when set, is
// called after logging (the server uses it to count panics).
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recover(logger log.Logger, onPanic func()) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				logger.Error(r.Context(), xerrors.WithStack(err), "panic serving request",
					"request_id", RequestIDFromContext(r.Context()),
					"http.request.method", r.Method,
					"url.path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if onPanic != nil {
					onPanic()
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
