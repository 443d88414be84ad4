package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-confres/logger"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// EtcdConfig etcd connection settings
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`

	// Key prefix holding configuration, e.g. /myapp/config
	Prefix string `mapstructure:"prefix"`
}

// ApplyDefaults fills zero values
func (c *EtcdConfig) ApplyDefaults() {
	if len(c.Endpoints) == 0 {
		c.Endpoints = []string{"127.0.0.1:2379"}
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Validate configuration
func (c *EtcdConfig) Validate() error {
	for _, ep := range c.Endpoints {
		if ep == "" {
			return fmt.Errorf("endpoints cannot contain empty values")
		}
	}
	if c.Username == "" && c.Password != "" {
		return fmt.Errorf("password set without username")
	}
	return nil
}

func (c *EtcdConfig) clientConfig() clientv3.Config {
	cfg := clientv3.Config{
		Endpoints:   c.Endpoints,
		DialTimeout: c.DialTimeout,
	}
	if c.Username != "" {
		cfg.Username = c.Username
		cfg.Password = c.Password
	}
	return cfg
}

// NewEtcdClient connects and checks the first endpoint's status
func NewEtcdClient(ctx context.Context, cfg EtcdConfig, log *logger.CtxZapLogger) (*clientv3.Client, error) {
	if log == nil {
		log = logger.GetLogger("confres")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid etcd config: %w", err)
	}

	client, err := clientv3.New(cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to etcd failed: %w", err)
	}

	statusCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if _, err := client.Status(statusCtx, cfg.Endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	log.DebugCtx(ctx, "etcd connection successful",
		zap.Strings("endpoints", cfg.Endpoints))

	return client, nil
}
