package httpmw

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type clientIPKey struct{}

// ClientIPOptions configures client IP extraction.
type ClientIPOptions struct {
	// TrustedHops is the number of reverse proxies in front of the server.
	// 0 ignores X-Forwarded-For, 1 takes its rightmost entry (single load
	// balancer), 2 the second from the end (CDN + load balancer) and so on.
	TrustedHops int
}

// ClientIP resolves the client IP with no trusted proxies.
func ClientIP(next http.Handler) http.Handler {
	return ClientIPWithOptions(ClientIPOptions{})(next)
}

// ClientIPWithOptions resolves the client IP and stores it in the context.
func ClientIPWithOptions(opts ClientIPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientAddr(r, opts.TrustedHops)
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
		})
	}
}

// clientAddr trusts forwarded headers only when the peer is a private
// address and proxies are configured. Otherwise the headers are dropped
// so nothing downstream reads them.
func clientAddr(r *http.Request, trustedHops int) string {
	if r.RemoteAddr == "" {
		return "0.0.0.0"
	}
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	ip := net.ParseIP(peer)
	if ip == nil {
		return "0.0.0.0"
	}

	if !ip.IsPrivate() || trustedHops <= 0 {
		dropForwarded(r)
		return peer
	}

	xf := r.Header.Get("X-Forwarded-For")
	if xf == "" {
		return peer
	}
	parts := strings.Split(xf, ",")
	idx := len(parts) - trustedHops
	if idx < 0 {
		// fewer entries than proxies: fail closed
		dropForwarded(r)
		return peer
	}
	if candidate := strings.TrimSpace(parts[idx]); net.ParseIP(candidate) != nil {
		return candidate
	}
	return peer
}

func dropForwarded(r *http.Request) {
	r.Header.Del("X-Forwarded-For")
	r.Header.Del("X-Forwarded-Proto")
}

func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}
