// Package telemetry sets up tracer and meter providers for the resolver
// and its command line tool.
package telemetry

import (
	"fmt"
	"slices"
	"time"
)

// Config telemetry configuration
type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Exporter       string        `mapstructure:"exporter"`        // stdout, noop
	SamplerRatio   float64       `mapstructure:"sampler_ratio"`   // 0 < ratio <= 1
	Namespace      string        `mapstructure:"namespace"`       // metric name prefix
	ExportInterval time.Duration `mapstructure:"export_interval"` // metric export interval
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    "confres",
		Exporter:       "stdout",
		SamplerRatio:   1,
		Namespace:      "confres",
		ExportInterval: time.Minute,
	}
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.ServiceName == "" {
		c.ServiceName = def.ServiceName
	}
	if c.Exporter == "" {
		c.Exporter = def.Exporter
	}
	if c.SamplerRatio == 0 {
		c.SamplerRatio = def.SamplerRatio
	}
	if c.ExportInterval == 0 {
		c.ExportInterval = def.ExportInterval
	}
}

// Validate configuration
func (c Config) Validate() error {
	if !slices.Contains([]string{"stdout", "noop"}, c.Exporter) {
		return fmt.Errorf("unsupported exporter type: %s", c.Exporter)
	}
	if c.SamplerRatio < 0 || c.SamplerRatio > 1 {
		return fmt.Errorf("sampler_ratio must be between 0 and 1, got: %v", c.SamplerRatio)
	}
	if c.ExportInterval < 0 {
		return fmt.Errorf("export_interval must be >= 0, got: %s", c.ExportInterval)
	}
	return nil
}
