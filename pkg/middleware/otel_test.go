package middleware

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/vnav/pkg/router"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestOpenTelemetryConfig(t *testing.T) {
	config := defaultOTelConfig()
	if config.TracerName != "vnav" {
		t.Errorf("TracerName = %q, want vnav", config.TracerName)
	}
	if config.IncludeParams {
		t.Error("IncludeParams should default to false")
	}

	tr := OpenTelemetry(WithTracerName("app"), WithIncludeParams(true))
	if tr.config.TracerName != "app" || !tr.config.IncludeParams {
		t.Errorf("config = %+v", tr.config)
	}
	if tr.config.tracer == nil {
		t.Error("tracer should be resolved from the global provider")
	}
}

func TestOpenTelemetryCommittedSpan(t *testing.T) {
	sr, tp := newRecorder()
	tr := OpenTelemetry(
		WithTracerProvider(tp),
		WithIncludeParams(true),
		WithAttributeExtractor(func(to, _ *router.Route) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	r := newTestRouter(t, tr)

	var sawSpan bool
	r.BeforeEach(func(ctx context.Context, _, _ *router.Route) router.Outcome {
		sawSpan = SpanFromContext(ctx) != nil
		return router.Next()
	})

	if _, err := r.Push(context.Background(), router.To("/users/42")); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if !sawSpan {
		t.Error("guards should receive the navigation span")
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "navigate /users/:id" {
		t.Errorf("Name() = %q", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("Status = %v, want Ok", span.Status())
	}
	for key, want := range map[string]string{
		"vnav.to":         "/users/42",
		"vnav.from":       "/",
		"vnav.route.name": "user",
		"vnav.param.id":   "42",
		"vnav.outcome":    "committed",
		"test.attr":       "ok",
	} {
		if got, ok := spanAttr(span, key); !ok || got != want {
			t.Errorf("attribute %s = %q (%v), want %q", key, got, ok, want)
		}
	}
}

func TestOpenTelemetryFailureIsEvent(t *testing.T) {
	sr, tp := newRecorder()
	r := newTestRouter(t, OpenTelemetry(WithTracerProvider(tp)))

	r.BeforeEach(func(_ context.Context, to, _ *router.Route) router.Outcome {
		if to.Path == "/private" {
			return router.RedirectTo("/login")
		}
		return router.Next()
	})

	r.Push(context.Background(), router.To("/private"))

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	redirected := spans[0]
	if got, _ := spanAttr(redirected, "vnav.outcome"); got != "redirected" {
		t.Errorf("outcome = %q, want redirected", got)
	}
	if redirected.Status().Code == codes.Error {
		t.Error("a redirect is not an error")
	}
	events := redirected.Events()
	if len(events) != 1 || events[0].Name != "navigation.redirected" {
		t.Errorf("events = %v, want navigation.redirected", events)
	}

	login := spans[1]
	if login.Parent().SpanID() != redirected.SpanContext().SpanID() {
		t.Error("the redirect target should be traced under the redirected navigation")
	}
}

func TestOpenTelemetryErrorStatus(t *testing.T) {
	sr, tp := newRecorder()
	r := newTestRouter(t, OpenTelemetry(WithTracerProvider(tp)))
	r.BeforeEach(func(context.Context, *router.Route, *router.Route) router.Outcome {
		return router.Fail(errors.New("denied by policy"))
	})

	r.Push(context.Background(), router.To("/login"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if st := spans[0].Status(); st.Code != codes.Error || st.Description != "denied by policy" {
		t.Errorf("Status = %+v, want Error", st)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	sr, tp := newRecorder()
	r := newTestRouter(t, OpenTelemetry(
		WithTracerProvider(tp),
		WithNavigationFilter(func(to *router.Route) bool { return to.Path != "/login" }),
	))

	var span bool
	r.BeforeEach(func(ctx context.Context, _, _ *router.Route) router.Outcome {
		span = SpanFromContext(ctx) != nil
		return router.Next()
	})

	r.Push(context.Background(), router.To("/login"))
	if span {
		t.Error("filtered navigations should not carry a span")
	}
	if n := len(sr.Ended()); n != 0 {
		t.Errorf("ended spans = %d, want 0", n)
	}
	if SpanFromContext(context.Background()) != nil {
		t.Error("SpanFromContext outside a navigation should be nil")
	}
}
