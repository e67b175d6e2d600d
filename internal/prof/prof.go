// Package prof runs continuous profiling against a pyroscope server.
package prof

import (
	"context"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/keithlinneman/zuga-web/internal/log"
	"github.com/keithlinneman/zuga-web/internal/xerrors"
)

type Options struct {
	Enabled       bool
	AppName       string
	ServerAddress string
	TenantID      string
	Tags          map[string]string
	// MutexFraction and BlockRate enable the runtime mutex and block
	// profiles when > 0.
	MutexFraction int
	BlockRate     int
}

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexCount,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

// Start begins profiling and returns its stop func. Disabled returns a no-op.
func Start(ctx context.Context, opts Options) (func(), error) {
	L := log.FromContext(ctx)
	noop := func() {}

	if !opts.Enabled {
		L.Info(ctx, "pyroscope disabled")
		return noop, nil
	}
	if opts.ServerAddress == "" {
		return noop, xerrors.New("pyroscope enabled without a server address")
	}
	if opts.AppName == "" {
		return noop, xerrors.New("pyroscope enabled without an application name")
	}

	if opts.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(opts.MutexFraction)
	}
	if opts.BlockRate > 0 {
		runtime.SetBlockProfileRate(opts.BlockRate)
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: opts.AppName,
		ServerAddress:   opts.ServerAddress,
		TenantID:        opts.TenantID,
		Tags:            opts.Tags,
		ProfileTypes:    profileTypes,
	})
	if err != nil {
		return noop, xerrors.Wrapf(err, "start pyroscope for %s", opts.ServerAddress)
	}

	L.Info(ctx, "pyroscope started", "server_address", opts.ServerAddress, "app_name", opts.AppName)
	return func() {
		profiler.Stop()
		L.Info(context.Background(), "pyroscope stopped")
	}, nil
}
