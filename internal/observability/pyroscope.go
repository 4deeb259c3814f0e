package observability

import (
	"runtime"

	crerr "github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/ajnabicam-profile/internal/config"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
)

// Sampling rates for the mutex and block profiles. Both are off in the Go
// runtime unless set, and pyroscope reports empty profiles without them.
const (
	pyroscopeMutexFraction = 5
	pyroscopeBlockRate     = 5
)

// InitPyroscope starts continuous profiling when enabled.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	prevMutexFraction := runtime.SetMutexProfileFraction(pyroscopeMutexFraction)
	runtime.SetBlockProfileRate(pyroscopeBlockRate)

	profiler, err := pyroscope.Start(pyroscopeConfig(cfg))
	if err != nil {
		runtime.SetMutexProfileFraction(prevMutexFraction)
		runtime.SetBlockProfileRate(0)
		return nil, crerr.Wrap(err, "start pyroscope")
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
		"version", cfg.ServiceVersion,
	)

	return func() error {
		defer runtime.SetBlockProfileRate(0)
		defer runtime.SetMutexProfileFraction(prevMutexFraction)
		return profiler.Stop()
	}, nil
}

func pyroscopeConfig(cfg config.Config) pyroscope.Config {
	tags := map[string]string{
		"env":     cfg.AppEnv,
		"service": cfg.ServiceName,
	}
	if cfg.ServiceVersion != "" {
		tags["version"] = cfg.ServiceVersion
	}

	return pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockDuration,
		},
	}
}
