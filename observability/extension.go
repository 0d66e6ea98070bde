package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dai/shuttle/ext"
	"github.com/dai/shuttle/runner"
)

// Compile-time interface checks.
var (
	_ ext.Extension   = (*MetricsExtension)(nil)
	_ ext.JobExecuted = (*MetricsExtension)(nil)
	_ ext.JobSkipped  = (*MetricsExtension)(nil)
	_ ext.JobFailed   = (*MetricsExtension)(nil)
	_ ext.JobIgnored  = (*MetricsExtension)(nil)
)

// meterName is the instrumentation scope name for the extension.
const meterName = "github.com/dai/shuttle/observability"

// MetricsExtension records one shuttle.dispatch.outcomes increment per
// dispatch, with job_name and status attributes.
type MetricsExtension struct {
	outcomes metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// On error the API returns a noop instrument.
	outcomes, _ := meter.Int64Counter(
		"shuttle.dispatch.outcomes",
		metric.WithDescription("Dispatches by terminal status"),
		metric.WithUnit("{dispatch}"),
	)
	return &MetricsExtension{outcomes: outcomes}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobExecuted implements ext.JobExecuted.
func (m *MetricsExtension) OnJobExecuted(ctx context.Context, o runner.Outcome) error {
	m.record(ctx, o)
	return nil
}

// OnJobSkipped implements ext.JobSkipped.
func (m *MetricsExtension) OnJobSkipped(ctx context.Context, o runner.Outcome) error {
	m.record(ctx, o)
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, o runner.Outcome) error {
	m.record(ctx, o)
	return nil
}

// OnJobIgnored implements ext.JobIgnored.
func (m *MetricsExtension) OnJobIgnored(ctx context.Context, o runner.Outcome) error {
	m.record(ctx, o)
	return nil
}

func (m *MetricsExtension) record(ctx context.Context, o runner.Outcome) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_name", o.Name),
		attribute.String("status", o.Status.String()),
	))
}
