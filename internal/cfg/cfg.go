package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/keithlinneman/zuga-web/internal/log"
)

// EnvPrefix maps flag "foo-bar" to environment variable ZUGA_FOO_BAR.
const EnvPrefix = "ZUGA_"

// Content sources.
const (
	SourceDir = "dir"
	SourceS3  = "s3"
)

type App struct {
	LogJSON           bool
	LogLevel          string
	StacktraceLevel   string
	IncludeErrorLinks bool
	MaxErrorLinks     int

	HTTPPort    int
	AdminPort   int
	EnablePprof bool

	EnablePyroscope bool
	PyroServer      string
	PyroTenantID    string
	EnableTracing   bool
	OTLPEndpoint    string
	TraceSample     float64

	ContentSource   string
	ContentDir      string
	ContentSSMParam string
	ContentS3Bucket string
	ContentS3Prefix string
	DefaultLanguage string
	ShowDrafts      bool
	StrictContent   bool

	RateLimitRPS     float64
	RateLimitBurst   int
	TrustedProxyHops int
}

// Register binds all config fields to the given FlagSet with defaults inline
func Register(fs *flag.FlagSet, c *App) {
	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.StringVar(&c.StacktraceLevel, "stacktrace-level", "error", "debug|info|warn|error")
	fs.BoolVar(&c.IncludeErrorLinks, "include-error-links", true, "include error chain links in error logs")
	fs.IntVar(&c.MaxErrorLinks, "max-error-links", 5, "max error chain depth (1..64)")

	fs.IntVar(&c.HTTPPort, "http-port", 8080, "public listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "ops listen TCP port (1..65535)")
	fs.BoolVar(&c.EnablePprof, "enable-pprof", true, "serve pprof on the ops port")

	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "push profiles to -pyro-server")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "pyroscope tenant (x-scope-orgid)")
	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "export OTLP traces to -otlp-endpoint")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint (host:port)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")

	fs.StringVar(&c.ContentSource, "content-source", SourceDir, "where the content root comes from: dir|s3")
	fs.StringVar(&c.ContentDir, "content-dir", "content", "content root directory (content-source=dir)")
	fs.StringVar(&c.ContentSSMParam, "content-ssm-param", "/app/zuga-web/content/release/sha256", "ssm parameter holding the bundle sha256 (content-source=s3)")
	fs.StringVar(&c.ContentS3Bucket, "content-s3-bucket", "", "s3 bucket holding content bundles (content-source=s3)")
	fs.StringVar(&c.ContentS3Prefix, "content-s3-prefix", "zuga-web/content/bundles", "s3 key prefix of content bundles (content-source=s3)")
	fs.StringVar(&c.DefaultLanguage, "default-language", "et", "language / redirects to: et|en")
	fs.BoolVar(&c.ShowDrafts, "show-drafts", false, "serve draft documents")
	fs.BoolVar(&c.StrictContent, "strict-content", false, "refuse to start when the content check reports errors")

	fs.Float64Var(&c.RateLimitRPS, "rate-limit-rps", 10, "sustained requests per second per client ip (0 disables)")
	fs.IntVar(&c.RateLimitBurst, "rate-limit-burst", 40, "burst size per client ip")
	fs.IntVar(&c.TrustedProxyHops, "trusted-proxy-hops", 1, "reverse proxies in front of the server (X-Forwarded-For hops)")
}

// FillFromEnv sets any flag not explicitly passed on the CLI from
// environment variables. Flag "foo-bar" maps to PREFIX_FOO_BAR.
// Precedence: cli flag > env var > default.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := prefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
		envVal, envSet := os.LookupEnv(key)
		if !envSet {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, envVal)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVal); err != nil {
			_ = fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, envVal, err)
			}
		}
	})
}

// Validate reports every invalid field at once, or nil.
func Validate(c App) error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort))
	}
	if c.AdminPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err))
	}
	if c.StacktraceLevel != "" {
		if _, err := log.ParseLevel(c.StacktraceLevel); err != nil {
			errs = append(errs, fmt.Errorf("invalid STACKTRACE_LEVEL %q: %w", c.StacktraceLevel, err))
		}
	}
	if c.IncludeErrorLinks && (c.MaxErrorLinks < 1 || c.MaxErrorLinks > 64) {
		errs = append(errs, fmt.Errorf("MAX_ERROR_LINKS must be 1..64 (got %d)", c.MaxErrorLinks))
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}
	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, errors.New("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if u, err := url.Parse(c.PyroServer); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, errors.New("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}
	// the grpc exporter wants host:port, no scheme
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err))
		}
	}

	switch c.ContentSource {
	case SourceDir:
		if c.ContentDir == "" {
			errs = append(errs, errors.New("CONTENT_DIR required when CONTENT_SOURCE=dir"))
		}
	case SourceS3:
		if c.ContentSSMParam == "" {
			errs = append(errs, errors.New("CONTENT_SSM_PARAM required when CONTENT_SOURCE=s3"))
		}
		if c.ContentS3Bucket == "" {
			errs = append(errs, errors.New("CONTENT_S3_BUCKET required when CONTENT_SOURCE=s3"))
		}
		if c.ContentS3Prefix == "" {
			errs = append(errs, errors.New("CONTENT_S3_PREFIX required when CONTENT_SOURCE=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CONTENT_SOURCE %q (must be dir|s3)", c.ContentSource))
	}
	if c.DefaultLanguage != "et" && c.DefaultLanguage != "en" {
		errs = append(errs, fmt.Errorf("invalid DEFAULT_LANGUAGE %q (must be et|en)", c.DefaultLanguage))
	}

	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_RPS %.2f (must be >= 0)", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("invalid RATE_LIMIT_BURST %d (must be >= 1)", c.RateLimitBurst))
	}
	if c.TrustedProxyHops < 0 || c.TrustedProxyHops > 8 {
		errs = append(errs, fmt.Errorf("invalid TRUSTED_PROXY_HOPS %d (must be 0..8)", c.TrustedProxyHops))
	}

	return errors.Join(errs...)
}
