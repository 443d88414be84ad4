package provider

import (
	"context"

	"github.com/samber/do/v2"
)

// ProvideProvider creates the Provider provider
//
// Usage:
//
//	do.Provide(injector, provider.ProvideProvider(provider.Options{
//	    ConfigDir: "../configs/admin-api",
//	    EnvPrefix: "ADMIN_API",
//	}))
//	do.Provide(injector, provider.ProvideConfig[ServerConfig]())
//	cfg := do.MustInvoke[*ServerConfig](injector)
func ProvideProvider(opts Options, extra ...Option) func(do.Injector) (*Provider, error) {
	return func(i do.Injector) (*Provider, error) {
		return NewFromOptions(context.Background(), opts, extra...)
	}
}

// ProvideProviderValue registers an existing Provider (tests, custom wiring)
func ProvideProviderValue(p *Provider) func(do.Injector) (*Provider, error) {
	return func(i do.Injector) (*Provider, error) {
		return p, nil
	}
}

// ProvideConfig resolves T with the injector's Provider
func ProvideConfig[T any]() func(do.Injector) (*T, error) {
	return func(i do.Injector) (*T, error) {
		p, err := do.Invoke[*Provider](i)
		if err != nil {
			return nil, err
		}
		cfg, err := Get[T](context.Background(), p)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	}
}
