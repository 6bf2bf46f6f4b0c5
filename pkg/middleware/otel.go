package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vnav/pkg/router"
)

// Default tracer name for vnav routers.
const defaultTracerName = "vnav"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vnav").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// IncludeParams adds the target's route params as span attributes.
	// Params may carry identifiers; disabled by default.
	IncludeParams bool

	// Filter determines which navigations to trace.
	// Return true to trace the navigation, false to skip.
	// If nil, all navigations are traced.
	Filter func(to *router.Route) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(to, from *router.Route) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeParams enables route params as span attributes.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeParams = include
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(to *router.Route) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(to, from *router.Route) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// Tracing is a router.Observer that traces transitions.
type Tracing struct {
	config OTelConfig
}

// OpenTelemetry returns an observer tracing every navigation.
//
// The observer:
//   - Starts a span per transition named after the matched route pattern
//   - Hands the span to guards through their context
//   - Records navigation failures as events and errors as span errors
//
// Configure the tracer provider in main() before creating routers, or pass
// one with WithTracerProvider:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	config.tracer = tp.Tracer(config.TracerName)

	return &Tracing{config: config}
}

// spanKey marks contexts carrying a span started by Tracing.
type spanKey struct{}

// NavigationStart implements router.Observer.
func (t *Tracing) NavigationStart(ctx context.Context, to, from *router.Route) context.Context {
	if t.config.Filter != nil && !t.config.Filter(to) {
		return ctx
	}

	attrs := []attribute.KeyValue{
		attribute.String("vnav.to", to.FullPath),
		attribute.String("vnav.from", from.FullPath),
	}
	if to.Name != "" {
		attrs = append(attrs, attribute.String("vnav.route.name", to.Name))
	}
	if to.RedirectedFrom != "" {
		attrs = append(attrs, attribute.String("vnav.redirected_from", to.RedirectedFrom))
	}
	if t.config.IncludeParams {
		for k, v := range to.Params {
			attrs = append(attrs, attribute.String("vnav.param."+k, v))
		}
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(to, from)...)
	}

	ctx, span := t.config.tracer.Start(ctx, formatSpanName(to),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return context.WithValue(ctx, spanKey{}, span)
}

// NavigationEnd implements router.Observer.
func (t *Tracing) NavigationEnd(ctx context.Context, _, _ *router.Route, err error) {
	span, ok := ctx.Value(spanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	outcome := Outcome(err)
	span.SetAttributes(attribute.String("vnav.outcome", outcome))
	switch outcome {
	case "committed":
		span.SetStatus(codes.Ok, "")
	case "error":
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.AddEvent("navigation."+outcome, trace.WithAttributes(
			attribute.String("vnav.failure", err.Error()),
		))
		span.SetStatus(codes.Ok, "")
	}
}

// formatSpanName names the span after the deepest matched pattern so span
// names stay low-cardinality.
func formatSpanName(to *router.Route) string {
	if n := len(to.Matched); n > 0 {
		return fmt.Sprintf("navigate %s", to.Matched[n-1].Path)
	}
	return "navigate (unmatched)"
}

// SpanFromContext returns the navigation span handed to guards, or nil
// outside a traced navigation.
//
// Example:
//
//	r.BeforeEach(func(ctx context.Context, to, from *router.Route) router.Outcome {
//	    if span := middleware.SpanFromContext(ctx); span != nil {
//	        span.SetAttributes(attribute.Bool("auth.checked", true))
//	    }
//	    return router.Next()
//	})
func SpanFromContext(ctx context.Context) trace.Span {
	if span, ok := ctx.Value(spanKey{}).(trace.Span); ok {
		return span
	}
	return nil
}
