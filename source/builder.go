package source

import (
	"path/filepath"
)

// Layer priorities used by LayeredBuilder
const (
	PriorityBase    = 10
	PriorityEnvFile = 20
	PriorityDropIn  = 30
	PriorityEnvVars = 50
	PriorityRedis   = 60
	PriorityEtcd    = 70
)

// LayeredBuilder assembles the standard layer stack
type LayeredBuilder struct {
	configDir  string
	env        string
	envPrefix  string
	redisKey   string
	etcdPrefix string
}

// NewLayeredBuilder creates a layered discoverer builder
func NewLayeredBuilder() *LayeredBuilder {
	return &LayeredBuilder{}
}

// WithConfigDir sets the configuration directory
func (b *LayeredBuilder) WithConfigDir(dir string) *LayeredBuilder {
	b.configDir = dir
	return b
}

// WithEnv sets the environment name, CurrentEnv() when unset
func (b *LayeredBuilder) WithEnv(env string) *LayeredBuilder {
	b.env = env
	return b
}

// WithEnvPrefix enables the environment variable layer
func (b *LayeredBuilder) WithEnvPrefix(prefix string) *LayeredBuilder {
	b.envPrefix = prefix
	return b
}

// WithRedis enables the redis hash layer
func (b *LayeredBuilder) WithRedis(key string) *LayeredBuilder {
	b.redisKey = key
	return b
}

// WithEtcd enables the etcd prefix layer
func (b *LayeredBuilder) WithEtcd(prefix string) *LayeredBuilder {
	b.etcdPrefix = prefix
	return b
}

// Build the discoverer
func (b *LayeredBuilder) Build() *Layered {
	layered := NewLayered()

	if b.configDir != "" {
		// 1. base file
		layered.AddLayer(Layer{ID: FileID(filepath.Join(b.configDir, "config.yaml")), Priority: PriorityBase})

		// 2. environment file
		env := b.env
		if env == "" {
			env = CurrentEnv()
		}
		layered.AddLayer(Layer{ID: FileID(filepath.Join(b.configDir, env+".yaml")), Priority: PriorityEnvFile})

		// 3. drop-in files
		layered.AddGlob(filepath.Join(b.configDir, "conf.d", "*.yaml"), PriorityDropIn)
	}

	// 4. environment variables
	if b.envPrefix != "" {
		layered.AddLayer(Layer{ID: EnvID(b.envPrefix), Priority: PriorityEnvVars})
	}

	// 5. remote layers
	if b.redisKey != "" {
		layered.AddLayer(Layer{ID: RedisID(b.redisKey), Priority: PriorityRedis})
	}
	if b.etcdPrefix != "" {
		layered.AddLayer(Layer{ID: EtcdID(b.etcdPrefix), Priority: PriorityEtcd})
	}

	return layered
}
