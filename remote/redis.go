// Package remote creates the redis and etcd clients behind remote
// configuration layers.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-confres/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig redis connection settings
type RedisConfig struct {
	// Mode: "standalone" or "cluster"
	Mode string `mapstructure:"mode"`

	// Address list. Standalone uses the first address.
	Addrs []string `mapstructure:"addrs"`

	// Addr single address, converted to Addrs
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`

	// Database number (0-15, standalone only)
	DB int `mapstructure:"db"`

	// Key of the hash holding configuration
	Key string `mapstructure:"key"`

	PoolSize     int           `mapstructure:"pool_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ApplyDefaults fills zero values
func (c *RedisConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "standalone"
	}
	if c.Addr != "" && len(c.Addrs) == 0 {
		c.Addrs = []string{c.Addr}
	}
	if c.PoolSize == 0 {
		c.PoolSize = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate configuration
func (c *RedisConfig) Validate() error {
	if c.Mode != "standalone" && c.Mode != "cluster" {
		return fmt.Errorf("invalid mode: %s (must be standalone or cluster)", c.Mode)
	}
	if len(c.Addrs) == 0 {
		return fmt.Errorf("addrs cannot be empty")
	}
	if c.Mode == "standalone" && (c.DB < 0 || c.DB > 15) {
		return fmt.Errorf("db must be between 0 and 15, got: %d", c.DB)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must be >= 0, got: %d", c.PoolSize)
	}
	return nil
}

// NewRedisClient connects and pings. Cluster mode returns a cluster client.
func NewRedisClient(ctx context.Context, cfg RedisConfig, log *logger.CtxZapLogger) (redis.UniversalClient, error) {
	if log == nil {
		log = logger.GetLogger("confres")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	var client redis.UniversalClient
	if cfg.Mode == "cluster" {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addrs[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.DebugCtx(ctx, "Redis connection successful",
		zap.String("mode", cfg.Mode),
		zap.Strings("addrs", cfg.Addrs))

	return client, nil
}
