// Package pipeline resolves the properties of one configuration request:
// sources are read in order, each raw property is matched against the
// eligible members, validated, and merged so the last source wins.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-confres/coerce"
	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/logger"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/KOMKZ/go-yogan-confres/source"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/KOMKZ/go-yogan-confres/pipeline"

// Pipeline the property resolution pipeline.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	parser         source.Parser
	validator      coerce.Validator
	logger         *logger.CtxZapLogger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *pipelineMetrics
	workers        int
}

// New creates a pipeline reading sources through parser
func New(parser source.Parser, opts ...Option) (*Pipeline, error) {
	if parser == nil {
		return nil, fmt.Errorf("parser cannot be nil")
	}

	p := &Pipeline{
		parser:    parser,
		validator: coerce.NewCaster(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.GetLogger("confres")
	}
	if p.tracerProvider == nil {
		p.tracerProvider = otel.GetTracerProvider()
	}
	if p.meterProvider == nil {
		p.meterProvider = otel.GetMeterProvider()
	}
	p.tracer = p.tracerProvider.Tracer(instrumentationName)

	metrics, err := newPipelineMetrics(p.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("create pipeline metrics failed: %w", err)
	}
	p.metrics = metrics

	return p, nil
}

// Resolve reads sources in the given order and returns the merged, validated
// properties keyed by property name. A property from a later source replaces
// the same property from an earlier one.
//
// Any parse or validation error aborts the request; no partial set is returned.
func (p *Pipeline) Resolve(ctx context.Context, sources []source.SourceID, eligible *property.MemberSet) (*property.ResolvedSet, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "confres.resolve", trace.WithAttributes(
		attribute.Int("confres.sources", len(sources)),
		attribute.Int("confres.members", eligible.Len()),
	))
	defer span.End()

	resolved := property.NewResolvedSet()
	var err error
	for _, id := range sources {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = p.resolveSource(ctx, id, eligible, resolved); err != nil {
			break
		}
	}

	p.metrics.resolve.Total.Add(ctx, 1)
	p.metrics.resolve.Duration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		p.metrics.resolve.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", errorKind(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorCtx(ctx, "Property resolution failed", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("confres.resolved", resolved.Len()))
	p.logger.DebugCtx(ctx, "Property resolution completed",
		zap.Int("sources", len(sources)),
		zap.Strings("properties", resolved.Keys()),
		zap.Duration("duration", time.Since(start)))
	return resolved, nil
}

// candidate a matched raw property waiting for validation
type candidate struct {
	raw    property.RawProperty
	member property.MemberDescriptor
}

func (p *Pipeline) resolveSource(ctx context.Context, id source.SourceID, eligible *property.MemberSet, resolved *property.ResolvedSet) error {
	ctx, span := p.tracer.Start(ctx, "confres.source", trace.WithAttributes(
		attribute.String("confres.source", string(id)),
	))
	defer span.End()

	p.metrics.sources.Add(ctx, 1, metric.WithAttributes(attribute.String("scheme", id.Scheme())))

	var (
		pending []candidate
		read    int
		dropped int
		merged  int
	)

	err := func() error {
		for raw, err := range p.parser.Parse(ctx, id) {
			if err != nil {
				return parseError(id, err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			read++

			member, ok, ambiguous := eligible.Match(raw)
			if !ok {
				dropped++
				if ambiguous {
					p.logger.WarnCtx(ctx, "Property matches several members, skipped",
						zap.String("source", string(id)), zap.String("key", raw.FullName))
				} else {
					p.logger.DebugCtx(ctx, "Property dropped",
						zap.String("source", string(id)), zap.String("key", raw.FullName))
				}
				continue
			}

			if p.workers > 1 {
				pending = append(pending, candidate{raw: raw, member: member})
				continue
			}

			validated, err := p.validate(raw, member)
			if err != nil {
				return err
			}
			p.merge(ctx, resolved, validated)
			merged++
		}

		if len(pending) == 0 {
			return nil
		}
		validated, err := p.validateParallel(ctx, pending)
		if err != nil {
			return err
		}
		for _, v := range validated {
			p.merge(ctx, resolved, v)
			merged++
		}
		return nil
	}()

	span.SetAttributes(
		attribute.Int("confres.read", read),
		attribute.Int("confres.dropped", dropped),
		attribute.Int("confres.merged", merged),
	)
	if dropped > 0 {
		p.metrics.dropped.Add(ctx, int64(dropped))
	}
	if merged > 0 {
		p.metrics.resolved.Add(ctx, int64(merged))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *Pipeline) validate(raw property.RawProperty, member property.MemberDescriptor) (property.ValidatedProperty, error) {
	validated, err := p.validator.Validate(raw, member.Type)
	if err != nil {
		if errors.Is(err, errdef.ErrValidation) {
			return property.ValidatedProperty{}, err
		}
		return property.ValidatedProperty{}, errdef.ErrValidation.
			WithMsgf("property %s from %s is invalid", raw.FullName, raw.Source).
			WithFields(map[string]any{"source": raw.Source, "key": raw.FullName}).
			Wrap(err)
	}
	return validated, nil
}

// validateParallel validates candidates concurrently and returns the results
// in candidate order. Every candidate is validated, so the reported error is
// the first failure in stream order, not the first to finish.
func (p *Pipeline) validateParallel(ctx context.Context, pending []candidate) ([]property.ValidatedProperty, error) {
	results := make([]property.ValidatedProperty, len(pending))
	errs := make([]error, len(pending))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, c := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = p.validate(c.raw, c.member)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (p *Pipeline) merge(ctx context.Context, resolved *property.ResolvedSet, v property.ValidatedProperty) {
	if resolved.Set(v) {
		p.logger.DebugCtx(ctx, "Property overridden",
			zap.String("property", v.PropertyName),
			zap.String("source", v.Source))
	}
}

// parseError keeps parse and context errors as they are and marks anything
// else from a parser as a parse error of id
func parseError(id source.SourceID, err error) error {
	if errors.Is(err, errdef.ErrParse) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errdef.ErrParse.
		WithMsgf("%s: parse failed", id).
		WithData("source", string(id)).
		Wrap(err)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, errdef.ErrParse):
		return "parse"
	case errors.Is(err, errdef.ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
