package jobs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// jobMetrics counts the work done by the scheduled jobs.
type jobMetrics struct {
	processed metric.Int64Counter
	failures  metric.Int64Counter
}

func newJobMetrics() (*jobMetrics, error) {
	meter := otel.Meter("marketplace/jobs")

	processed, err := meter.Int64Counter("marketplace.jobs.processed",
		metric.WithDescription("Items handled by a scheduled job run (published messages, settled orders)."),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("marketplace.jobs.failures",
		metric.WithDescription("Scheduled job runs that returned an error."),
	)
	if err != nil {
		return nil, err
	}

	return &jobMetrics{processed: processed, failures: failures}, nil
}

func (m *jobMetrics) record(ctx context.Context, job string, processed int, err error) {
	attrs := metric.WithAttributes(attribute.String("job", job))
	if processed > 0 {
		m.processed.Add(ctx, int64(processed), attrs)
	}
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
	}
}
