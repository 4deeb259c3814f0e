package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/ajnabicam-profile/internal/domain/identity"
	"github.com/riskibarqy/ajnabicam-profile/internal/platform/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testOrigin = "https://app.ajnabicam.example"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type staticVerifier struct {
	principal identity.Principal
	err       error
}

func (v staticVerifier) VerifyAccessToken(context.Context, string) (identity.Principal, error) {
	return v.principal, v.err
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantOrigin  string
		wantStatus  int
		wantMethods string
	}{
		{"configured origin", []string{testOrigin + "/"}, http.MethodGet, testOrigin, testOrigin, http.StatusOK, corsAllowMethods},
		{"wildcard preflight", []string{"*"}, http.MethodOptions, testOrigin, "*", http.StatusNoContent, corsAllowMethods},
		{"unknown origin", []string{"https://allowed.example.com"}, http.MethodGet, testOrigin, "", http.StatusOK, ""},
		{"unknown origin preflight", []string{"https://allowed.example.com"}, http.MethodOptions, testOrigin, "", http.StatusNoContent, ""},
		{"no origin header", []string{"*"}, http.MethodGet, "", "", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/v1/profile/me", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()

			CORS(tc.allowed, okHandler).ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tc.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestShouldTraceRequest(t *testing.T) {
	for _, path := range []string{"/healthz", "/HEALTH", "/livez", "/readyz/", " /healthz "} {
		require.False(t, shouldTraceRequest(path), path)
	}
	for _, path := range []string{"/v1/profile/me", "/v1/session", "/", "/v1/internal/jobs/expire-premium"} {
		require.True(t, shouldTraceRequest(path), path)
	}
}

func TestRequestLogging_IncludesAuthenticatedUser(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.FromZap(zap.New(core))

	verifier := staticVerifier{principal: identity.Principal{UserID: "01J0USER", Anonymous: true}}
	handler := RequestLogging(logger, RequireAuth(verifier, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/profile/me", nil)
	req.Header.Set("Authorization", "Bearer token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "01J0USER", fields["user_id"])
	require.EqualValues(t, http.StatusOK, fields["status"])
	require.EqualValues(t, len(`{"ok":true}`), fields["bytes"])
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestRequestLogging_ServerErrorsLogAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.FromZap(zap.New(core))

	handler := RequestLogging(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/session", nil))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	require.NotContains(t, entries[0].ContextMap(), "user_id")
}

func TestRequireAuth_RejectsMalformedHeader(t *testing.T) {
	handler := RequireAuth(staticVerifier{}, okHandler)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireInternalJobToken(t *testing.T) {
	handler := RequireInternalJobToken("job-secret", okHandler)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/expire-premium", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireInternalJobToken("", okHandler).ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
