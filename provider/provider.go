// Package provider answers configuration requests: it resolves the members
// of a type, discovers the sources, runs the resolution pipeline and builds
// the object.
//
//	p, err := provider.New(provider.WithDiscoverer(
//	    source.NewLayeredBuilder().WithConfigDir("configs").WithEnvPrefix("MYAPP").Build(),
//	))
//	cfg, err := provider.Get[ServerConfig](ctx, p)
package provider

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/KOMKZ/go-yogan-confres/build"
	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/logger"
	"github.com/KOMKZ/go-yogan-confres/members"
	"github.com/KOMKZ/go-yogan-confres/pipeline"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/KOMKZ/go-yogan-confres/remote"
	"github.com/KOMKZ/go-yogan-confres/source"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/KOMKZ/go-yogan-confres/provider"

// Provider configuration provider. It keeps no per-request state and is safe
// for concurrent use.
type Provider struct {
	discoverer     source.Discoverer
	resolver       members.Resolver
	parser         source.Parser
	pipelineOpts   []pipeline.Option
	pipeline       *pipeline.Pipeline
	builder        build.Builder
	logger         *logger.CtxZapLogger
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	// remote clients owned by the provider
	closers []func() error
}

// New creates a provider. WithDiscoverer is required.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}

	if p.discoverer == nil {
		return nil, fmt.Errorf("discoverer cannot be nil")
	}
	if p.resolver == nil {
		p.resolver = members.NewReflect()
	}
	if p.builder == nil {
		p.builder = build.NewStructBuilder()
	}
	if p.logger == nil {
		p.logger = logger.GetLogger("confres")
	}
	if p.tracerProvider == nil {
		p.tracerProvider = otel.GetTracerProvider()
	}
	p.tracer = p.tracerProvider.Tracer(instrumentationName)

	if p.pipeline == nil {
		if p.parser == nil {
			p.parser = source.NewDefaultMux()
		}
		plOpts := append([]pipeline.Option{
			pipeline.WithLogger(p.logger),
			pipeline.WithTracerProvider(p.tracerProvider),
		}, p.pipelineOpts...)

		pl, err := pipeline.New(p.parser, plOpts...)
		if err != nil {
			return nil, err
		}
		p.pipeline = pl
	}

	return p, nil
}

// NewFromOptions creates a provider from declarative options, connecting the
// remote layers they enable. extra options are applied after the derived ones.
func NewFromOptions(ctx context.Context, opts Options, extra ...Option) (*Provider, error) {
	opts.ApplyDefaults()

	builder := source.NewLayeredBuilder().
		WithConfigDir(opts.ConfigDir).
		WithEnv(opts.Env).
		WithEnvPrefix(opts.EnvPrefix)

	mux := source.NewDefaultMux()
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if opts.redisEnabled() {
		client, err := remote.NewRedisClient(ctx, *opts.Redis, nil)
		if err != nil {
			return nil, err
		}
		closers = append(closers, client.Close)
		mux.Handle(source.SchemeRedis, source.NewRedisParser(client))
		builder.WithRedis(opts.Redis.Key)
	}

	if opts.etcdEnabled() {
		client, err := remote.NewEtcdClient(ctx, *opts.Etcd, nil)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, client.Close)
		mux.Handle(source.SchemeEtcd, source.NewEtcdParser(client))
		builder.WithEtcd(opts.Etcd.Prefix)
	}

	var resolverOpts []members.Option
	if opts.Namespace != "" {
		resolverOpts = append(resolverOpts, members.WithNamespace(opts.Namespace))
	}

	base := []Option{
		WithDiscoverer(builder.Build()),
		WithParser(mux),
		WithResolver(members.NewReflect(resolverOpts...)),
	}
	if opts.ValidationWorkers > 1 {
		base = append(base, WithPipelineOptions(pipeline.WithValidationWorkers(opts.ValidationWorkers)))
	}

	p, err := New(append(base, extra...)...)
	if err != nil {
		closeAll()
		return nil, err
	}
	p.closers = closers
	return p, nil
}

// Get resolves and builds a T. T must be a struct type. On failure the zero
// T is returned together with an errdef.ErrResolution.
func Get[T any](ctx context.Context, p *Provider) (T, error) {
	var t T
	if err := p.Populate(ctx, &t); err != nil {
		var zero T
		return zero, err
	}
	return t, nil
}

// Populate resolves into target, a non-nil pointer to struct. Field values
// already in target act as defaults. target is left untouched on failure.
func (p *Provider) Populate(ctx context.Context, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errdef.ErrResolution.Wrap(
			errdef.ErrConstruction.WithMsgf("target must be a non-nil pointer to struct, got %T", target))
	}
	t := rv.Elem().Type()

	return p.observe(ctx, t.String(), func(ctx context.Context) error {
		eligible, err := p.resolver.Members(t)
		if err != nil {
			return err
		}

		resolved, err := p.resolve(ctx, eligible)
		if err != nil {
			return err
		}

		// build into a copy so a failed build leaves target as it was
		fresh := reflect.New(t)
		fresh.Elem().Set(rv.Elem())
		if err := p.builder.Build(eligible, resolved, fresh.Interface()); err != nil {
			return err
		}
		rv.Elem().Set(fresh.Elem())
		return nil
	})
}

// Resolution is the outcome of Resolve: the sources that were read, in
// order, and the merged properties.
type Resolution struct {
	Sources    []source.SourceID
	Properties *property.ResolvedSet
}

// Resolve runs discovery and the pipeline for an explicit member set. There
// is no build step, but required members are still enforced.
func (p *Provider) Resolve(ctx context.Context, eligible *property.MemberSet) (*Resolution, error) {
	var res *Resolution
	err := p.observe(ctx, "members", func(ctx context.Context) error {
		sources, err := p.discover(ctx)
		if err != nil {
			return err
		}
		resolved, err := p.pipeline.Resolve(ctx, sources, eligible)
		if err != nil {
			return err
		}
		if err := build.CheckRequired(eligible, resolved); err != nil {
			return err
		}
		res = &Resolution{Sources: sources, Properties: resolved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Sources returns the discovered sources in resolution order
func (p *Provider) Sources(ctx context.Context) ([]source.SourceID, error) {
	sources, err := p.discover(ctx)
	if err != nil {
		return nil, errdef.ErrResolution.WithMsg("discover sources failed").Wrap(err)
	}
	return sources, nil
}

// Shutdown closes the remote clients the provider owns
func (p *Provider) Shutdown() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

func (p *Provider) resolve(ctx context.Context, eligible *property.MemberSet) (*property.ResolvedSet, error) {
	sources, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}
	return p.pipeline.Resolve(ctx, sources, eligible)
}

func (p *Provider) discover(ctx context.Context) ([]source.SourceID, error) {
	sources, err := p.discoverer.Discover(ctx)
	if err != nil {
		if errors.Is(err, errdef.ErrSourceDiscovery) {
			return nil, err
		}
		return nil, errdef.ErrSourceDiscovery.Wrap(err)
	}
	return sources, nil
}

// observe runs fn under a span and a resolution id, wrapping failures in
// errdef.ErrResolution
func (p *Provider) observe(ctx context.Context, subject string, fn func(ctx context.Context) error) error {
	id := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "confres.get",
		trace.WithAttributes(
			attribute.String("confres.resolution_id", id),
			attribute.String("confres.type", subject),
		))
	defer span.End()

	log := p.logger.With(zap.String("resolution_id", id), zap.String("type", subject))
	start := time.Now()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorCtx(ctx, "Configuration request failed", zap.Error(err))
		return errdef.ErrResolution.
			WithMsgf("resolve %s failed", subject).
			WithData("resolution_id", id).
			Wrap(err)
	}

	log.DebugCtx(ctx, "Configuration resolved", zap.Duration("duration", time.Since(start)))
	return nil
}
