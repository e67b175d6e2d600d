// Package httpmw holds the middleware of the public site listener.
//
// httpserver.NewHandler composes them, outermost first: security
// headers, recover, request ID, client IP, rate limit, tracing, content
// headers, metrics, request logger, then the chi router with access log
// and route annotation. Query strings, user agents and other client
// supplied headers are never logged.
package httpmw
