package logger

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// ManagerConfig global manager configuration (shared by all modules)
type ManagerConfig struct {
	BaseLogDir           string `mapstructure:"base_log_dir"`
	Level                string `mapstructure:"level"`
	AppName              string `mapstructure:"app_name"`
	Encoding             string `mapstructure:"encoding"` // json or console
	EnableConsole        bool   `mapstructure:"enable_console"`
	ConsoleTarget        string `mapstructure:"console_target"` // stdout or stderr
	EnableFile           bool   `mapstructure:"enable_file"`
	EnableDateInFilename bool   `mapstructure:"enable_date_in_filename"`
	DateFormat           string `mapstructure:"date_format"`
	MaxSize              int    `mapstructure:"max_size"` // MB
	MaxBackups           int    `mapstructure:"max_backups"`
	MaxAge               int    `mapstructure:"max_age"` // days
	Compress             bool   `mapstructure:"compress"`
	EnableCaller         bool   `mapstructure:"enable_caller"`
	EnableStacktrace     bool   `mapstructure:"enable_stacktrace"`
	StacktraceDepth      int    `mapstructure:"stacktrace_depth"` // 0 = default (10)
	LoggerName           string `mapstructure:"logger_name"`
	TraceIDFieldName     string `mapstructure:"trace_id_field_name"`
}

// DefaultManagerConfig returns the default manager configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:           "logs",
		LoggerName:           "confres",
		Level:                "info",
		Encoding:             "console",
		EnableConsole:        true,
		ConsoleTarget:        "stdout",
		EnableFile:           false,
		EnableDateInFilename: true,
		DateFormat:           "2006-01-02",
		MaxSize:              100,
		MaxBackups:           3,
		MaxAge:               28,
		Compress:             true,
		EnableCaller:         true,
		EnableStacktrace:     true,
		StacktraceDepth:      5,
		TraceIDFieldName:     "trace_id",
	}
}

// ApplyDefaults fills zero-valued fields with default values (in-place).
// Booleans are kept as configured.
func (c *ManagerConfig) ApplyDefaults() {
	defaults := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = defaults.BaseLogDir
	}
	if c.LoggerName == "" {
		c.LoggerName = defaults.LoggerName
	}
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Encoding == "" {
		c.Encoding = defaults.Encoding
	}
	if c.ConsoleTarget == "" {
		c.ConsoleTarget = defaults.ConsoleTarget
	}
	if c.DateFormat == "" {
		c.DateFormat = defaults.DateFormat
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = defaults.TraceIDFieldName
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = defaults.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaults.MaxAge
	}
}

var (
	validLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validEncodings = []string{"json", "console"}
)

// Validate checks the manager configuration
func (c ManagerConfig) Validate() error {
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("invalid log level: %s (valid values: %v)", c.Level, validLevels)
	}
	if !slices.Contains(validEncodings, c.Encoding) {
		return fmt.Errorf("invalid log encoding: %s (valid values: %v)", c.Encoding, validEncodings)
	}
	if c.ConsoleTarget != "" && c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmt.Errorf("invalid console target: %s (valid values: stdout, stderr)", c.ConsoleTarget)
	}
	if c.MaxSize < 1 || c.MaxSize > 10000 {
		return fmt.Errorf("MaxSize must be between 1-10000 MB, current: %d", c.MaxSize)
	}
	if c.MaxBackups < 0 || c.MaxBackups > 1000 {
		return fmt.Errorf("MaxBackups must be between 0-1000, current: %d", c.MaxBackups)
	}
	if c.MaxAge < 0 || c.MaxAge > 3650 {
		return fmt.Errorf("MaxAge must be between 0-3650 days, current: %d", c.MaxAge)
	}
	if c.EnableFile && c.EnableDateInFilename && c.DateFormat == "" {
		return fmt.Errorf("date format must be specified when enabling date in filename")
	}
	return nil
}

// ParseLevel parses a log level string, unknown values map to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// filePath builds logs/<module>/<module>-<level>[-<date>].log
func (c ManagerConfig) filePath(module, level string) string {
	parts := []string{module, level}
	if c.EnableDateInFilename {
		parts = append(parts, time.Now().Format(c.DateFormat))
	}
	return filepath.Join(c.BaseLogDir, module, strings.Join(parts, "-")+".log")
}
