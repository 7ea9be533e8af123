package logging

import (
	"sync"
	"testing"
)

// TestLogger discards output unless created with NewTestLoggerVerbose, in
// which case lines go to t.Logf.
type TestLogger struct {
	module string
	t      *testing.T
}

// NewTestLogger creates a silent test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{module: "test"}
}

// NewTestLoggerVerbose creates a test logger that writes through t
func NewTestLoggerVerbose(t *testing.T) *TestLogger {
	return &TestLogger{module: "test", t: t}
}

func (l *TestLogger) logf(level Level, msg string, args []interface{}) {
	if l.t != nil {
		l.t.Helper()
		l.t.Logf("[%s] %s: %s %v", l.module, level, msg, args)
	}
}

// Debug logs a debug message
func (l *TestLogger) Debug(msg string, args ...interface{}) { l.logf(LevelDebug, msg, args) }

// Info logs an informational message
func (l *TestLogger) Info(msg string, args ...interface{}) { l.logf(LevelInfo, msg, args) }

// Warn logs a warning message
func (l *TestLogger) Warn(msg string, args ...interface{}) { l.logf(LevelWarn, msg, args) }

// Error logs an error message
func (l *TestLogger) Error(msg string, args ...interface{}) { l.logf(LevelError, msg, args) }

// Fatal logs through t.Fatalf instead of exiting the process
func (l *TestLogger) Fatal(msg string, args ...interface{}) {
	if l.t != nil {
		l.t.Fatalf("[%s] FATAL: %s %v", l.module, msg, args)
	}
}

// WithModule appends module to the component hierarchy
func (l *TestLogger) WithModule(module string) Logger {
	newModule := module
	if l.module != "" {
		newModule = l.module + "/" + module
	}
	return &TestLogger{module: newModule, t: l.t}
}

// RecordingLogger keeps every line in memory so tests can assert on what a
// component reported.
type RecordingLogger struct {
	module string
	store  *entryStore
}

type entryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded log line
type Entry struct {
	Level   Level
	Module  string
	Message string
	Args    []interface{}
}

// NewRecordingLogger creates an empty recording logger
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{module: "test", store: &entryStore{}}
}

func (l *RecordingLogger) record(level Level, msg string, args []interface{}) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = append(l.store.entries, Entry{Level: level, Module: l.module, Message: msg, Args: args})
}

// Debug records a debug message
func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.record(LevelDebug, msg, args) }

// Info records an informational message
func (l *RecordingLogger) Info(msg string, args ...interface{}) { l.record(LevelInfo, msg, args) }

// Warn records a warning message
func (l *RecordingLogger) Warn(msg string, args ...interface{}) { l.record(LevelWarn, msg, args) }

// Error records an error message
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.record(LevelError, msg, args) }

// Fatal records a fatal message without exiting
func (l *RecordingLogger) Fatal(msg string, args ...interface{}) { l.record(LevelFatal, msg, args) }

// WithModule shares the entry list with the parent
func (l *RecordingLogger) WithModule(module string) Logger {
	return &RecordingLogger{module: l.module + "/" + module, store: l.store}
}

// Entries returns the recorded lines at or above level
func (l *RecordingLogger) Entries(level Level) []Entry {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	var out []Entry
	for _, e := range l.store.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}
