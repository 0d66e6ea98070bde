package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dai/shuttle/job"
)

// tracerName is the instrumentation scope name for shuttle tracing.
const tracerName = "github.com/dai/shuttle"

// Tracing returns middleware that wraps admitted work in an OpenTelemetry
// span. Without a configured TracerProvider the global noop tracer is used.
//
// Span attributes: shuttle.execution.id, shuttle.job.name, shuttle.job.key,
// shuttle.queue, shuttle.owner, and shuttle.result once the work returns.
// An ignorable failure (see WithIgnorable) is recorded as an event and
// leaves the span status unset instead of marking it as an error.
func Tracing(opts ...Option) Middleware {
	return TracingWithTracer(otel.Tracer(tracerName), opts...)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer, opts ...Option) Middleware {
	o := buildOptions(opts)
	return func(ctx context.Context, e *job.Execution, next Handler) error {
		ctx, span := tracer.Start(ctx, "shuttle.job.execute",
			trace.WithAttributes(
				attribute.String("shuttle.execution.id", e.ID.String()),
				attribute.String("shuttle.job.name", e.Name),
				attribute.String("shuttle.job.key", e.Key.String()),
				attribute.String("shuttle.queue", e.Queue),
				attribute.String("shuttle.owner", ownerString(e)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		if e.Timeout > 0 {
			span.SetAttributes(attribute.Int64("shuttle.job.timeout_ms", e.Timeout.Milliseconds()))
		}

		err := next(ctx)
		result := o.result(err)
		switch result {
		case "ignored":
			span.AddEvent("failure ignored", trace.WithAttributes(attribute.String("reason", err.Error())))
		case "error":
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		default:
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(attribute.String("shuttle.result", result))

		return err
	}
}
