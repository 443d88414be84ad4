package provider

import (
	"github.com/KOMKZ/go-yogan-confres/build"
	"github.com/KOMKZ/go-yogan-confres/logger"
	"github.com/KOMKZ/go-yogan-confres/members"
	"github.com/KOMKZ/go-yogan-confres/pipeline"
	"github.com/KOMKZ/go-yogan-confres/remote"
	"github.com/KOMKZ/go-yogan-confres/source"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Provider
type Option func(*Provider)

// WithDiscoverer sets the source discoverer (required)
func WithDiscoverer(d source.Discoverer) Option {
	return func(p *Provider) {
		p.discoverer = d
	}
}

// WithResolver sets the member resolver, members.NewReflect() by default
func WithResolver(r members.Resolver) Option {
	return func(p *Provider) {
		p.resolver = r
	}
}

// WithParser sets the parser used by the default pipeline,
// source.NewDefaultMux() by default
func WithParser(parser source.Parser) Option {
	return func(p *Provider) {
		p.parser = parser
	}
}

// WithPipelineOptions passes options to the default pipeline
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(p *Provider) {
		p.pipelineOpts = append(p.pipelineOpts, opts...)
	}
}

// WithPipeline replaces the default pipeline; WithParser and
// WithPipelineOptions are ignored
func WithPipeline(pl *pipeline.Pipeline) Option {
	return func(p *Provider) {
		p.pipeline = pl
	}
}

// WithBuilder sets the object builder, build.NewStructBuilder() by default
func WithBuilder(b build.Builder) Option {
	return func(p *Provider) {
		p.builder = b
	}
}

// WithLogger sets the logger, shared with the default pipeline
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(p *Provider) {
		if log != nil {
			p.logger = log
		}
	}
}

// WithTracerProvider sets the tracer provider, shared with the default pipeline
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Provider) {
		if tp != nil {
			p.tracerProvider = tp
		}
	}
}

// Options declarative provider settings, loadable with viper
type Options struct {
	// Directory holding config.yaml, <env>.yaml and conf.d/
	ConfigDir string `mapstructure:"config_dir"`

	// Environment name, APP_ENV > ENV > dev when empty
	Env string `mapstructure:"env"`

	// Prefix of the environment variable layer, disabled when empty
	EnvPrefix string `mapstructure:"env_prefix"`

	// Leading name segment of members, package name when empty
	Namespace string `mapstructure:"namespace"`

	ValidationWorkers int `mapstructure:"validation_workers"`

	// Redis hash layer, enabled when Key is set
	Redis *remote.RedisConfig `mapstructure:"redis"`

	// Etcd prefix layer, enabled when Prefix is set
	Etcd *remote.EtcdConfig `mapstructure:"etcd"`
}

// ApplyDefaults fills zero values
func (o *Options) ApplyDefaults() {
	if o.ConfigDir == "" {
		o.ConfigDir = "./configs"
	}
}

func (o Options) redisEnabled() bool {
	return o.Redis != nil && o.Redis.Key != ""
}

func (o Options) etcdEnabled() bool {
	return o.Etcd != nil && o.Etcd.Prefix != ""
}

// OptionsFromViper reads Options under key ("" reads the root)
func OptionsFromViper(v *viper.Viper, key string) (Options, error) {
	var opts Options
	var err error
	if key == "" {
		err = v.Unmarshal(&opts)
	} else {
		err = v.UnmarshalKey(key, &opts)
	}
	if err != nil {
		return Options{}, err
	}
	opts.ApplyDefaults()
	return opts, nil
}
