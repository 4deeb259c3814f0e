package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/ajnabicam-profile/internal/config"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                  config.EnvDev,
		ServiceName:             "ajnabicam-profile-test",
		HTTPAddr:                ":0",
		ReadTimeout:             time.Second,
		WriteTimeout:            time.Second,
		CORSAllowedOrigins:      []string{"*"},
		StorageDriver:           config.StorageDriverMemory,
		SnapshotDriver:          config.SnapshotDriverMemory,
		SnapshotTTL:             time.Hour,
		SnapshotMaxEntries:      100,
		IdentitySigningKey:      "0123456789abcdef0123456789abcdef",
		IdentityTokenTTL:        time.Hour,
		IdentityCacheTTL:        time.Minute,
		IdentityCacheMaxEntries: 100,
		ReferralCodeLength:      8,
		PremiumGrantDuration:    24 * time.Hour,
		PremiumSessionTTL:       time.Minute,
		PremiumMaxSessions:      10,
		SweepWorkers:            2,
	}
}

func TestNewHTTPServer_MemoryDrivers(t *testing.T) {
	srv, cleanup, err := NewHTTPServer(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"token"`)
}

func TestNewHTTPServer_Validation(t *testing.T) {
	t.Run("empty addr", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.HTTPAddr = ""
		_, _, err := NewHTTPServer(context.Background(), cfg, logging.NewNop())
		require.Error(t, err)
	})

	t.Run("short signing key", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.IdentitySigningKey = "short"
		_, _, err := NewHTTPServer(context.Background(), cfg, logging.NewNop())
		require.Error(t, err)
	})
}

func TestNewExpiryQueue(t *testing.T) {
	queue, err := newExpiryQueue(memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(context.Background(), "/jobs", nil, time.Minute, ""))

	cfg := memoryConfig()
	cfg.QStashEnabled = true
	cfg.QStashBaseURL = "https://qstash.upstash.io"
	cfg.QStashTargetBaseURL = "not a url"
	cfg.QStashToken = "token"
	_, err = newExpiryQueue(cfg, logging.NewNop())
	require.Error(t, err)
}
