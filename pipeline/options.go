package pipeline

import (
	"github.com/KOMKZ/go-yogan-confres/coerce"
	"github.com/KOMKZ/go-yogan-confres/logger"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger (default: module "confres" of the global manager)
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithValidator replaces the default coerce.Caster
func WithValidator(v coerce.Validator) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithTracerProvider sets the tracer provider (default: otel global)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		if tp != nil {
			p.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the meter provider (default: otel global)
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Pipeline) {
		if mp != nil {
			p.meterProvider = mp
		}
	}
}

// WithValidationWorkers validates the matched properties of one source on
// up to n goroutines. Results are still merged in stream order.
// n <= 1 validates inline.
func WithValidationWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}
