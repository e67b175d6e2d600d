package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/zuga-web/internal/version"
)

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	inflight       prometheus.Gauge
	reqTotal       *prometheus.CounterVec
	reqDur         *prometheus.HistogramVec
	respBytes      *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	httpPanicTotal prometheus.Counter

	ratelimitDeniedTotal prometheus.Counter

	contentLoadsTotal      *prometheus.CounterVec
	contentLoadDuration    *prometheus.HistogramVec
	contentValidationTotal *prometheus.CounterVec
	contentDocuments       *prometheus.GaugeVec
	contentBundleInfo      *prometheus.GaugeVec
	contentLoadedTimestamp prometheus.Gauge

	buildInfo       *prometheus.GaugeVec
	profilingActive prometheus.Gauge
}

// New returns a fresh registry with the go/process collectors and the
// server's metrics. HTTP labels are method, route pattern and status only.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx HTTP responses by method and route",
		}, []string{"method", "route"}),
		httpPanicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total recovered handler panics",
		}),
		ratelimitDeniedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total requests rejected by the per-ip rate limiter",
		}),
		contentLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_loads_total",
			Help: "Single document loads by language and result (ok, not_found, invalid, error)",
		}, []string{"lang", "result"}),
		contentLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "content_load_duration_seconds",
			Help:    "Time to read, parse and validate one document",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"lang"}),
		contentValidationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_validation_errors_total",
			Help: "Integrity issues found by the last content check, by kind",
		}, []string{"kind"}),
		contentDocuments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "content_documents",
			Help: "Valid documents per language in the content root",
		}, []string{"lang"}),
		contentBundleInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "content_bundle_info",
			Help: "Content root being served (labels carry identity, value is always 1)",
		}, []string{"source", "sha256"}),
		contentLoadedTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "content_loaded_timestamp_seconds",
			Help: "Unix timestamp of when the content root was opened",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "build_date", "vcs_dirty", "go_version"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is active (1) or disabled/failed (0)",
		}),
	}
	reg.MustRegister(
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.errorsTotal,
		m.httpPanicTotal,
		m.ratelimitDeniedTotal,
		m.contentLoadsTotal,
		m.contentLoadDuration,
		m.contentValidationTotal,
		m.contentDocuments,
		m.contentBundleInfo,
		m.contentLoadedTimestamp,
		m.buildInfo,
		m.profilingActive,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	m.reg = reg
	return m
}

func (m *ServerMetrics) Handler() http.Handler { return m.handler }

func (m *ServerMetrics) Registry() *prometheus.Registry { return m.reg }

func (m *ServerMetrics) IncHttpPanic() { m.httpPanicTotal.Inc() }

func (m *ServerMetrics) IncRateLimitDenied() { m.ratelimitDeniedTotal.Inc() }

// ObserveContentLoad records one document load.
func (m *ServerMetrics) ObserveContentLoad(lang, result string, d time.Duration) {
	m.contentLoadsTotal.WithLabelValues(lang, result).Inc()
	m.contentLoadDuration.WithLabelValues(lang).Observe(d.Seconds())
}

// SetContentCheck publishes the outcome of a content check: issue counts
// by kind and valid documents by language. Previous values are dropped.
func (m *ServerMetrics) SetContentCheck(issuesByKind map[string]int, docsByLang map[string]int) {
	m.contentValidationTotal.Reset()
	for kind, n := range issuesByKind {
		m.contentValidationTotal.WithLabelValues(kind).Add(float64(n))
	}
	m.contentDocuments.Reset()
	for lang, n := range docsByLang {
		m.contentDocuments.WithLabelValues(lang).Set(float64(n))
	}
}

// SetContentBundle marks the content root being served. sha256 is empty
// for a directory source.
func (m *ServerMetrics) SetContentBundle(source, sha256 string, loadedAt time.Time) {
	m.contentBundleInfo.Reset()
	m.contentBundleInfo.WithLabelValues(source, sha256).Set(1)
	m.contentLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

// set once at startup.
func (m *ServerMetrics) SetBuildInfoFromVersion(app, component string, vi version.Info) {
	dirty := "unknown"
	if vi.VCSDirty != nil {
		dirty = strconv.FormatBool(*vi.VCSDirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":        app,
		"component":  component,
		"version":    vi.Version,
		"commit":     vi.Commit,
		"build_date": vi.BuildDate,
		"go_version": vi.GoVersion,
		"vcs_dirty":  dirty,
	}).Set(1)
}

func (m *ServerMetrics) SetProfilingActive(active bool) {
	if active {
		m.profilingActive.Set(1)
		return
	}
	m.profilingActive.Set(0)
}
