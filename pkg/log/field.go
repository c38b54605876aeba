package log

import "time"

// Field is a structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a field with any value.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates the "error" field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Str(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Strs(key string, value []string) Field { return Field{Key: key, Value: value} }
func Duration(key string, v time.Duration) Field { return Field{Key: key, Value: v.String()} }

// Component tags an entry with a component name.
func Component(value string) Field {
	return Field{Key: ComponentKey, Value: value}
}

// RunID tags an entry with the launch run identifier.
func RunID(value string) Field {
	return Field{Key: RunIDKey, Value: value}
}

// Process tags an entry with a process identifier.
func Process(value string) Field {
	return Field{Key: ProcessKey, Value: value}
}
