package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/zuga-web/internal/cfg"
	"github.com/keithlinneman/zuga-web/internal/content"
	"github.com/keithlinneman/zuga-web/internal/contentapi"
	"github.com/keithlinneman/zuga-web/internal/health"
	"github.com/keithlinneman/zuga-web/internal/httpmw"
	"github.com/keithlinneman/zuga-web/internal/httpserver"
	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/metrics"
	"github.com/keithlinneman/zuga-web/internal/opshttp"
	"github.com/keithlinneman/zuga-web/internal/otelx"
	"github.com/keithlinneman/zuga-web/internal/prof"
	"github.com/keithlinneman/zuga-web/internal/ratelimit"
	"github.com/keithlinneman/zuga-web/internal/render"
	"github.com/keithlinneman/zuga-web/internal/sitehandler"
	"github.com/keithlinneman/zuga-web/internal/sitehttp"
	v "github.com/keithlinneman/zuga-web/internal/version"
)

const (
	// time between failing readiness and closing listeners on shutdown
	drainPeriod = 30 * time.Second
	// a readiness check slower than this reports not ready
	readinessTimeout = 2 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool
	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(vi.String())
		os.Exit(0)
	}

	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// levels were checked by cfg.Validate
	lvl, _ := log.ParseLevel(conf.LogLevel)
	stackLvl, _ := log.ParseLevel(conf.StacktraceLevel)
	lg, err := log.New(log.Options{
		App:               v.AppName,
		Version:           vi.Version,
		Commit:            vi.Commit,
		BuildId:           vi.BuildId,
		Level:             lvl,
		StacktraceLevel:   stackLvl,
		JsonFormat:        conf.LogJSON,
		IncludeErrorLinks: conf.IncludeErrorLinks,
		MaxErrorLinks:     conf.MaxErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer lg.Sync()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"build_id", vi.BuildId,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"otlp_endpoint", conf.OTLPEndpoint,
		"trace_sample", conf.TraceSample,
		"content_source", conf.ContentSource,
		"content_dir", conf.ContentDir,
		"content_ssm_param", conf.ContentSSMParam,
		"content_s3_bucket", conf.ContentS3Bucket,
		"content_s3_prefix", conf.ContentS3Prefix,
		"default_language", conf.DefaultLanguage,
		"show_drafts", conf.ShowDrafts,
		"strict_content", conf.StrictContent,
	)

	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"component": "server",
			"version":   vi.Version,
			"commit":    vi.Commit,
		},
	})
	profErr := err
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	defer stopProf()

	// the collector runs on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
		shutdownOTEL = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, "server", vi)
	m.SetProfilingActive(conf.EnablePyroscope && profErr == nil)

	contentReady := health.NewFlag("content not loaded")

	snap, err := openContent(ctx, conf, L)
	if err != nil {
		L.Error(ctx, err, "failed to open content root")
		os.Exit(1)
	}
	m.SetContentBundle(string(snap.Meta.Source), snap.Meta.SHA256, snap.Meta.LoadedAt)

	loader, err := content.NewLoader(content.LoaderOptions{
		Root:     snap.FS,
		Logger:   L.With("component", "content"),
		Observer: m,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create content loader")
		os.Exit(1)
	}

	rep, err := checkContent(ctx, loader, m, L)
	if err != nil {
		L.Error(ctx, err, "content check failed")
		os.Exit(1)
	}
	if !rep.OK() {
		if conf.StrictContent {
			L.Error(ctx, rep.Err(), "content has errors and strict-content is set")
			os.Exit(1)
		}
		L.Warn(ctx, "serving content with errors", "errors", len(rep.Errors()))
	}
	contentReady.Set()

	renderer := render.New()
	lang := content.Language(conf.DefaultLanguage)

	site, err := sitehandler.New(sitehandler.Options{
		Logger:          L.With("component", "site"),
		Store:           loader,
		Renderer:        renderer,
		DefaultLanguage: lang,
		ShowDrafts:      conf.ShowDrafts,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}
	api, err := contentapi.New(contentapi.Options{
		Store:      loader,
		Renderer:   renderer,
		Logger:     L.With("component", "api"),
		Meta:       snap.Meta,
		ShowDrafts: conf.ShowDrafts,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create content api")
		os.Exit(1)
	}

	var gate health.ShutdownGate
	readiness := health.Timeout(health.All(gate.Probe(), contentReady), readinessTimeout)

	var rateLimitMW func(http.Handler) http.Handler
	if conf.RateLimitRPS > 0 {
		limiter := ratelimit.New(ctx,
			ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
			ratelimit.WithOnDenied(func(string) { m.IncRateLimitDenied() }),
			ratelimit.WithExempt(func(r *http.Request) bool {
				return strings.HasPrefix(r.URL.Path, "/static/")
			}),
			// only the first denial per ip until it is evicted
			ratelimit.WithOnFirstDenied(func(ip string) {
				L.Warn(ctx, "rate limit triggered", "ip", ip)
			}),
		)
		rateLimitMW = limiter.Middleware
	}

	siteHTTPStop, err := httpserver.Start(ctx, httpserver.Options{
		Logger:       L,
		Port:         conf.HTTPPort,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
		MetricsMW:    m.Middleware,
		RateLimitMW:  rateLimitMW,
		ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedProxyHops},
		ContentInfo:  snap.Meta,
		// the site registers last; it owns NotFound
		Routes: []func(chi.Router){
			api.RegisterRoutes,
			sitehttp.New(site).RegisterRoutes,
		},
	})
	if err != nil {
		L.Error(ctx, err, "failed to start site http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// the ops port is reachable from the monitoring network only
	opsHTTPStop, err := opshttp.Start(ctx, L, opshttp.Options{
		Port:        conf.AdminPort,
		Metrics:     m.Handler(),
		EnablePprof: conf.EnablePprof,
		Health:      health.Fixed(true, ""),
		Readiness:   readiness,
		Content:     contentapi.StatusHandler(snap.Meta, rep),
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	if err := notifySystemd(); err != nil {
		L.Debug(ctx, "systemd notify skipped", "reason", err)
	}

	<-ctx.Done()
	stop()
	L.Info(context.Background(), "shutdown signal received")

	// fail readiness so the load balancer stops sending traffic
	gate.Set("draining")
	L.Info(context.Background(), "draining", "period", drainPeriod.String())
	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(drainPeriod):
		L.Info(context.Background(), "drain period complete")
	case <-forceCh:
		L.Warn(context.Background(), "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "site http server shutdown")
	}
	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "otel shutdown")
	}
	L.Info(context.Background(), "shutdown complete")
}

// notifySystemd sends READY=1 when started by systemd with Type=notify.
func notifySystemd() error {
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify: dial: %w", err)
	}
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		_ = conn.Close()
		return fmt.Errorf("systemd notify: write: %w", err)
	}
	return conn.Close()
}
