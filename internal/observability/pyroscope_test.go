package observability

import (
	"testing"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/ajnabicam-profile/internal/config"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{PyroscopeEnabled: false}, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, stop())
}

func TestPyroscopeConfig(t *testing.T) {
	got := pyroscopeConfig(config.Config{
		AppEnv:                 "staging",
		ServiceName:            "ajnabicam-profile",
		ServiceVersion:         "1.4.0",
		PyroscopeAppName:       "ajnabicam-profile",
		PyroscopeServerAddress: "http://pyroscope:4040",
		PyroscopeUploadRate:    15 * time.Second,
	})

	require.Equal(t, "ajnabicam-profile", got.ApplicationName)
	require.Equal(t, "http://pyroscope:4040", got.ServerAddress)
	require.Equal(t, 15*time.Second, got.UploadRate)
	require.Equal(t, map[string]string{
		"env":     "staging",
		"service": "ajnabicam-profile",
		"version": "1.4.0",
	}, got.Tags)
	require.Contains(t, got.ProfileTypes, pyroscope.ProfileCPU)
	require.Contains(t, got.ProfileTypes, pyroscope.ProfileMutexDuration)
}

func TestPyroscopeConfig_OmitsEmptyVersion(t *testing.T) {
	got := pyroscopeConfig(config.Config{AppEnv: "dev", ServiceName: "ajnabicam-profile"})
	require.NotContains(t, got.Tags, "version")
}
