package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("ajnabicam-profile/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// Auth guards get their own span so rejected requests show where they stopped.
var tracedGuards = map[string]struct{}{
	"httpapi.RequireAuth":             {},
	"httpapi.RequireInternalJobToken": {},
}

// startSpan only opens child spans of an existing request span. Helpers such
// as writeJSON get the no-op span to keep traces readable.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	if !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}

	ctx, span := apiTracer.Start(ctx, name)
	if p, ok := principalFromContext(ctx); ok {
		span.SetAttributes(
			attribute.String("enduser.id", p.UserID),
			attribute.Bool("enduser.anonymous", p.Anonymous),
		)
	}
	return ctx, span
}

func shouldCreateHTTPAPISpan(name string) bool {
	if _, ok := tracedGuards[name]; ok {
		return true
	}
	rest, ok := strings.CutPrefix(name, "httpapi.Handler.")
	if !ok || rest == "" {
		return false
	}
	// Lowercase names are unexported helpers of the handler.
	return rest[0] >= 'A' && rest[0] <= 'Z'
}
