package log

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// BaseLogger implements Logger by fanning entries out to a set of outputs.
type BaseLogger struct {
	level     Level
	fields    Fields
	formatter Formatter
	outputs   []Output
}

// Debug logs a message at the debug level.
func (l *BaseLogger) Debug(msg string, fields ...Field) {
	if l.level <= DebugLevel {
		l.write(DebugLevel, msg, fields)
	}
}

// Info logs a message at the info level.
func (l *BaseLogger) Info(msg string, fields ...Field) {
	if l.level <= InfoLevel {
		l.write(InfoLevel, msg, fields)
	}
}

// Warn logs a message at the warn level.
func (l *BaseLogger) Warn(msg string, fields ...Field) {
	if l.level <= WarnLevel {
		l.write(WarnLevel, msg, fields)
	}
}

// Error logs a message at the error level.
func (l *BaseLogger) Error(msg string, fields ...Field) {
	if l.level <= ErrorLevel {
		l.write(ErrorLevel, msg, fields)
	}
}

// With returns a child logger with the fields added.
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}

	child := &BaseLogger{
		level:     l.level,
		formatter: l.formatter,
		outputs:   l.outputs,
		fields:    make(Fields, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for _, field := range fields {
		child.fields[field.Key] = field.Value
	}
	return child
}

// WithComponent returns a child logger tagged with component.
func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

// Close closes every output. Errors are joined.
func (l *BaseLogger) Close() error {
	var errs []string
	for _, output := range l.outputs {
		if err := output.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing log outputs: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (l *BaseLogger) write(level Level, msg string, fields []Field) {
	entryFields := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		entryFields[k] = v
	}
	for _, field := range fields {
		entryFields[field.Key] = field.Value
	}

	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		parts := strings.Split(file, "/")
		if len(parts) > 2 {
			file = strings.Join(parts[len(parts)-2:], "/")
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    entryFields,
		Timestamp: time.Now(),
		Caller:    caller,
	}

	formatted, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting log entry: %v\n", err)
		return
	}

	for _, output := range l.outputs {
		if err := output.Write(entry, formatted); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to log output: %v\n", err)
		}
	}
}
