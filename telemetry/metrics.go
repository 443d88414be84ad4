package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

// MetricsBuilder creates instruments under a shared name prefix
type MetricsBuilder struct {
	meter     metric.Meter
	namespace string
}

// NewMetricsBuilder creates a metrics builder
func NewMetricsBuilder(meter metric.Meter, namespace string) *MetricsBuilder {
	return &MetricsBuilder{
		meter:     meter,
		namespace: namespace,
	}
}

func (b *MetricsBuilder) fullName(name string) string {
	if b.namespace == "" {
		return name
	}
	return b.namespace + "_" + name
}

// Counter creates an Int64Counter
func (b *MetricsBuilder) Counter(name, desc string) (metric.Int64Counter, error) {
	return b.CounterWithUnit(name, desc, "{count}")
}

// CounterWithUnit creates an Int64Counter with a custom unit
func (b *MetricsBuilder) CounterWithUnit(name, desc, unit string) (metric.Int64Counter, error) {
	return b.meter.Int64Counter(
		b.fullName(name),
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	)
}

// DurationHistogram creates a duration histogram in seconds
func (b *MetricsBuilder) DurationHistogram(name, desc string) (metric.Float64Histogram, error) {
	return b.meter.Float64Histogram(
		b.fullName(name),
		metric.WithDescription(desc),
		metric.WithUnit("s"),
	)
}

// OperationMetrics counters and duration for one kind of operation
type OperationMetrics struct {
	Total    metric.Int64Counter
	Duration metric.Float64Histogram
	Errors   metric.Int64Counter
}

// NewOperationMetrics creates <prefix>_total, <prefix>_duration_seconds
// and <prefix>_errors_total
func (b *MetricsBuilder) NewOperationMetrics(prefix string) (*OperationMetrics, error) {
	total, err := b.Counter(prefix+"_total", "Total number of "+prefix+" operations")
	if err != nil {
		return nil, err
	}

	duration, err := b.DurationHistogram(prefix+"_duration_seconds", prefix+" duration distribution")
	if err != nil {
		return nil, err
	}

	errors, err := b.Counter(prefix+"_errors_total", "Total number of failed "+prefix+" operations")
	if err != nil {
		return nil, err
	}

	return &OperationMetrics{
		Total:    total,
		Duration: duration,
		Errors:   errors,
	}, nil
}
