package pipeline

import (
	"github.com/KOMKZ/go-yogan-confres/telemetry"
	"go.opentelemetry.io/otel/metric"
)

type pipelineMetrics struct {
	resolve  *telemetry.OperationMetrics
	sources  metric.Int64Counter
	resolved metric.Int64Counter
	dropped  metric.Int64Counter
}

func newPipelineMetrics(meter metric.Meter) (*pipelineMetrics, error) {
	builder := telemetry.NewMetricsBuilder(meter, "confres")

	resolve, err := builder.NewOperationMetrics("resolve")
	if err != nil {
		return nil, err
	}

	sources, err := builder.CounterWithUnit("sources_total", "Total number of sources processed", "{source}")
	if err != nil {
		return nil, err
	}

	resolved, err := builder.CounterWithUnit("properties_resolved_total", "Properties validated and merged", "{property}")
	if err != nil {
		return nil, err
	}

	dropped, err := builder.CounterWithUnit("properties_dropped_total", "Properties matching no member", "{property}")
	if err != nil {
		return nil, err
	}

	return &pipelineMetrics{
		resolve:  resolve,
		sources:  sources,
		resolved: resolved,
		dropped:  dropped,
	}, nil
}
