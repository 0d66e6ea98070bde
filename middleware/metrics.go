package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dai/shuttle/job"
)

// meterName is the instrumentation scope name for shuttle metrics.
const meterName = "github.com/dai/shuttle"

// Metrics returns middleware that records per-job execution metrics using
// the global OTel MeterProvider.
//
// Instruments:
//   - shuttle.job.duration (Float64Histogram): work time in seconds
//   - shuttle.job.executions (Int64Counter): admitted executions
//
// Both carry job_name, queue, owner_kind ("none" without an owner), and
// status ("ok", "ignored" or "error"; see WithIgnorable).
func Metrics(opts ...Option) Middleware {
	return MetricsWithMeter(otel.Meter(meterName), opts...)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter, opts ...Option) Middleware {
	o := buildOptions(opts)

	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"shuttle.job.duration",
		metric.WithDescription("Duration of admitted job work in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"shuttle.job.executions",
		metric.WithDescription("Total number of admitted job executions"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, e *job.Execution, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		ownerKind := "none"
		if e.Owner != nil {
			ownerKind = e.Owner.Kind
		}

		attrs := metric.WithAttributes(
			attribute.String("job_name", e.Name),
			attribute.String("queue", e.Queue),
			attribute.String("owner_kind", ownerKind),
			attribute.String("status", o.result(err)),
		)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
