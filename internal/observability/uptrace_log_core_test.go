package observability

import (
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog("http request", map[string]any{"path": "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if shouldSkipUptraceLog("http request", map[string]any{"path": "/v1/session"}) {
		t.Fatalf("did not expect non-health log to be skipped")
	}
	if shouldSkipUptraceLog("referral redeemed", map[string]any{"path": "/healthz"}) {
		t.Fatalf("did not expect non-request event to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes(map[string]any{
		"user_id":  "u-1",
		"attempt":  2,
		"payload":  nil,
		"trace_id": "ignored",
	})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "attempt" || attrs[0].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "payload" || attrs[1].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute: %+v", attrs[1])
	}
	if attrs[2].Key != "user_id" || attrs[2].Value.AsString() != "u-1" {
		t.Fatalf("unexpected user_id attribute: %+v", attrs[2])
	}
}

func TestToOTelLogValue_Map(t *testing.T) {
	v := toOTelLogValue(map[string]any{
		"scanned": 11,
		"cleared": true,
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	if items := v.AsMap(); len(items) != 2 {
		t.Fatalf("expected 2 map items, got %d", len(items))
	}
}

func TestContextFromLogFields(t *testing.T) {
	ctx := contextFromLogFields(map[string]any{
		"trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
		"span_id":  "00f067aa0ba902b7",
	})
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		t.Fatalf("expected valid span context")
	}
	if spanCtx.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected trace id: %s", spanCtx.TraceID())
	}

	if trace.SpanContextFromContext(contextFromLogFields(map[string]any{"trace_id": "bad"})).IsValid() {
		t.Fatalf("expected invalid span context for malformed ids")
	}
}

func TestUptraceLogCore_WritesWithoutProvider(t *testing.T) {
	core := newUptraceLogCore("test", zapcore.InfoLevel).With([]zapcore.Field{zap.String("service", "profile")})
	if core.Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be disabled")
	}
	err := core.Write(zapcore.Entry{
		Level:   zapcore.WarnLevel,
		Time:    time.Now(),
		Message: "premium sweep failed",
	}, []zapcore.Field{zap.Int("failed", 1)})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
}
