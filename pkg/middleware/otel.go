package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navshell/internal/errors"
	"github.com/vango-dev/navshell/pkg/history"
)

const defaultTracerName = "github.com/vango-dev/navshell/pkg/middleware"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer.
	TracerName string

	// Filter determines which frames to trace. If nil, all frames are traced.
	Filter func(msg history.Message) bool

	// AttributeExtractor adds custom attributes to each frame span.
	AttributeExtractor func(msg history.Message) []attribute.KeyValue

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithFrameFilter sets a filter function for frames.
func WithFrameFilter(filter func(msg history.Message) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(msg history.Message) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracerProvider sets the tracer provider. Defaults to otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// OpenTelemetry returns middleware that traces every client frame.
//
// Each span is named "navshell.<type>" and carries the frame's target:
// its location, or its route name for name-based navigation. Rejected
// frames record the error and its code.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(next Handler) Handler {
		return func(ctx context.Context, msg history.Message) error {
			if config.Filter != nil && !config.Filter(msg) {
				return next(ctx, msg)
			}

			typ := frameType(msg)
			attrs := []attribute.KeyValue{
				attribute.String("navshell.frame_type", typ),
			}
			if msg.Location != "" {
				attrs = append(attrs, attribute.String("navshell.location", msg.Location))
			}
			if msg.Name != "" {
				attrs = append(attrs, attribute.String("navshell.route_name", msg.Name))
			}
			if msg.Replace {
				attrs = append(attrs, attribute.Bool("navshell.replace", true))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(msg)...)
			}

			spanCtx, span := tracer.Start(ctx, "navshell."+typ,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			err := next(spanCtx, msg)
			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("navshell.error_code", errors.CodeOf(err)))
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}

// SpanFromContext returns the frame span started by OpenTelemetry, or a
// no-op span outside of one.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
