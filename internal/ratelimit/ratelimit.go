package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/keithlinneman/zuga-web/internal/httpmw"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// logged is set after the first denial; reset when the entry is evicted
	logged bool
}

// IPLimiter holds a limiter per client ip.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	perSecond rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time

	onFirstDenied func(ip string)
	onDenied      func(ip string)
	exempt        func(*http.Request) bool
}

type Option func(*IPLimiter)

// WithRate sets the refill rate and bucket size: WithRate(10, 40) allows a
// burst of 40 requests, then 10 per second.
func WithRate(perSecond float64, burst int) Option {
	return func(l *IPLimiter) {
		l.perSecond = rate.Limit(perSecond)
		l.burst = burst
	}
}

// WithTTL sets how long an idle visitor is kept.
func WithTTL(d time.Duration) Option {
	return func(l *IPLimiter) { l.ttl = d }
}

// WithOnFirstDenied is called once per visitor on its first denial (logging).
func WithOnFirstDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) { l.onFirstDenied = fn }
}

// WithOnDenied is called on every denial (metrics).
func WithOnDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) { l.onDenied = fn }
}

// WithExempt skips limiting for requests matching fn, e.g. static assets
// that a single page view fetches in bulk.
func WithExempt(fn func(*http.Request) bool) Option {
	return func(l *IPLimiter) { l.exempt = fn }
}

// New creates an IPLimiter; eviction runs until ctx is done.
func New(ctx context.Context, opts ...Option) *IPLimiter {
	l := &IPLimiter{
		visitors:  make(map[string]*visitor),
		perSecond: 10,
		burst:     40,
		ttl:       5 * time.Minute,
		now:       time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	go l.cleanup(ctx)
	return l
}

// Allow reports whether ip is within its budget and consumes a token.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[ip] = v
	}
	now := l.now()
	v.lastSeen = now
	allowed := v.limiter.AllowN(now, 1)
	first := !allowed && !v.logged
	if first {
		v.logged = true
	}
	l.mu.Unlock()

	// hooks run outside the lock
	if first && l.onFirstDenied != nil {
		l.onFirstDenied(ip)
	}
	if !allowed && l.onDenied != nil {
		l.onDenied(ip)
	}
	return allowed
}

// Len is the number of tracked visitors.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *IPLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
		}
	}
}

func (l *IPLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.evict(now)
		}
	}
}

// Middleware answers 429 to clients over their budget. The client ip
// comes from httpmw.ClientIP, which must run first.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.exempt != nil && l.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(httpmw.ClientIPFromContext(r.Context())) {
			w.Header().Set("Retry-After", "30")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
