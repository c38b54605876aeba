package log

import (
	"strings"
	"sync"
)

// TestEntry is a captured log entry.
type TestEntry struct {
	Level   Level
	Message string
	Fields  Fields
}

// TestLogger captures entries instead of writing them. Child loggers created
// with With share the parent's capture buffer.
type TestLogger struct {
	sink   *testSink
	fields Fields
	level  Level
}

type testSink struct {
	mu      sync.Mutex
	entries []TestEntry
}

// NewTestLogger creates a TestLogger at debug level.
func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &testSink{}, fields: Fields{}, level: DebugLevel}
}

// GetEntries returns a copy of the captured entries.
func (l *TestLogger) GetEntries() []TestEntry {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make([]TestEntry, len(l.sink.entries))
	copy(out, l.sink.entries)
	return out
}

// HasMessage reports whether any entry at level contains substr.
func (l *TestLogger) HasMessage(level Level, substr string) bool {
	for _, e := range l.GetEntries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func (l *TestLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *TestLogger) Info(msg string, fields ...Field) { l.log(InfoLevel, msg, fields) }
func (l *TestLogger) Warn(msg string, fields ...Field) { l.log(WarnLevel, msg, fields) }
func (l *TestLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *TestLogger) With(fields ...Field) Logger {
	child := &TestLogger{sink: l.sink, level: l.level, fields: Fields{}}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for _, f := range fields {
		child.fields[f.Key] = f.Value
	}
	return child
}

func (l *TestLogger) WithComponent(component string) Logger { return l.With(Component(component)) }

func (l *TestLogger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	entry := TestEntry{Level: level, Message: msg, Fields: Fields{}}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}
	l.sink.mu.Lock()
	l.sink.entries = append(l.sink.entries, entry)
	l.sink.mu.Unlock()
}
