package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestManagerConfig_ApplyDefaults(t *testing.T) {
	cfg := ManagerConfig{Level: "debug"}
	cfg.ApplyDefaults()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "logs", cfg.BaseLogDir)
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, "stdout", cfg.ConsoleTarget)
	assert.NoError(t, cfg.Validate())
}

func TestManagerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ManagerConfig)
		errMsg string
	}{
		{"invalid level", func(c *ManagerConfig) { c.Level = "verbose" }, "invalid log level"},
		{"invalid encoding", func(c *ManagerConfig) { c.Encoding = "xml" }, "invalid log encoding"},
		{"max size out of range", func(c *ManagerConfig) { c.MaxSize = 0 }, "MaxSize"},
		{"negative backups", func(c *ManagerConfig) { c.MaxBackups = -1 }, "MaxBackups"},
		{"invalid console target", func(c *ManagerConfig) { c.ConsoleTarget = "syslog" }, "invalid console target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultManagerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("unknown"))
}

func TestManager_GetLogger_Cached(t *testing.T) {
	m := NewManager(ManagerConfig{EnableConsole: false})

	l1 := m.GetLogger("confres")
	l2 := m.GetLogger("confres")

	assert.Same(t, l1, l2)
	assert.Equal(t, "confres", l1.Module())
	m.CloseAll()
}

func TestManager_FileOutput(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{
		BaseLogDir:           dir,
		EnableFile:           true,
		EnableDateInFilename: false,
	})
	defer m.CloseAll()

	m.GetLogger("pipeline").Info("Resolution finished")

	assert.FileExists(t, filepath.Join(dir, "pipeline", "pipeline-info.log"))
}

func TestTestCtxLogger_Records(t *testing.T) {
	tl := NewTestCtxLogger()
	log := tl.Logger()

	log.DebugCtx(context.Background(), "Property dropped", zap.String("key", "app.unused"))
	log.With(zap.String("resolution_id", "r1")).WarnCtx(context.Background(), "Ambiguous property")

	assert.True(t, tl.HasLog("DEBUG", "Property dropped"))
	assert.True(t, tl.HasLogWithField("DEBUG", "Property dropped", "key", "app.unused"))
	assert.True(t, tl.HasLogWithField("WARN", "Ambiguous property", "resolution_id", "r1"))
	assert.Equal(t, 1, tl.CountLogs("WARN"))

	tl.Clear()
	assert.Empty(t, tl.Logs())
}

func TestCtxZapLogger_TraceID(t *testing.T) {
	tl := NewTestCtxLogger()
	log := tl.Logger()
	log.config = &ManagerConfig{TraceIDFieldName: "trace_id"}

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "resolve")
	defer span.End()

	log.InfoCtx(ctx, "Resolution started")

	traceID := span.SpanContext().TraceID().String()
	assert.True(t, tl.HasLogWithField("INFO", "Resolution started", "trace_id", traceID))
}

func TestCaptureStacktrace(t *testing.T) {
	stack := CaptureStacktrace(1, 2)
	assert.NotEmpty(t, stack)
	assert.Contains(t, stack, "CaptureStacktrace")
}
