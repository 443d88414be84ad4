package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestCtxLogger records logs in memory for unit test assertions.
// Pass Logger() to the component under test:
//
//	testLogger := logger.NewTestCtxLogger()
//	p := pipeline.New(parser, pipeline.WithLogger(testLogger.Logger()))
//	assert.True(t, testLogger.HasLog("DEBUG", "Property dropped"))
type TestCtxLogger struct {
	logger *CtxZapLogger
	logs   *observer.ObservedLogs
}

// LogEntry a recorded log line
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// NewTestCtxLogger creates an in-memory logger recording every level
func NewTestCtxLogger() *TestCtxLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestCtxLogger{
		logger: &CtxZapLogger{base: zap.New(core), module: "test"},
		logs:   logs,
	}
}

// Logger returns the CtxZapLogger to inject
func (t *TestCtxLogger) Logger() *CtxZapLogger {
	return t.logger
}

// HasLog checks for a log with the given level (DEBUG/INFO/WARN/ERROR) and message
func (t *TestCtxLogger) HasLog(level, message string) bool {
	for _, e := range t.Logs() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

// HasLogWithField checks for a log with the given level, message and field value
func (t *TestCtxLogger) HasLogWithField(level, message, fieldKey string, fieldValue any) bool {
	for _, e := range t.Logs() {
		if e.Level == level && e.Message == message {
			if val, ok := e.Fields[fieldKey]; ok && val == fieldValue {
				return true
			}
		}
	}
	return false
}

// CountLogs counts logs of a level
func (t *TestCtxLogger) CountLogs(level string) int {
	count := 0
	for _, e := range t.Logs() {
		if e.Level == level {
			count++
		}
	}
	return count
}

// Logs returns a snapshot of all recorded logs
func (t *TestCtxLogger) Logs() []LogEntry {
	all := t.logs.All()
	entries := make([]LogEntry, 0, len(all))
	for _, e := range all {
		entries = append(entries, LogEntry{
			Level:   strings.ToUpper(e.Level.String()),
			Message: e.Message,
			Fields:  e.ContextMap(),
		})
	}
	return entries
}

// Clear drops recorded logs
func (t *TestCtxLogger) Clear() {
	t.logs.TakeAll()
}
