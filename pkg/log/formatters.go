package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// JSONFormatter formats log entries as one JSON object per line.
type JSONFormatter struct {
	TimestampFormat string
	EnableCaller    bool
}

// Format formats the entry as JSON.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+4)

	timestampFormat := time.RFC3339
	if f.TimestampFormat != "" {
		timestampFormat = f.TimestampFormat
	}
	data["timestamp"] = entry.Timestamp.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if f.EnableCaller && entry.Caller != "" {
		data["caller"] = entry.Caller
	}

	for k, v := range entry.Fields {
		switch k {
		case "timestamp", "level", "message", "caller":
			// reserved
		default:
			data[k] = v
		}
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter formats log entries as human-readable lines.
type TextFormatter struct {
	TimestampFormat  string
	EnableCaller     bool
	DisableColors    bool
	DisableTimestamp bool
}

// NewTextFormatter creates a TextFormatter with a short timestamp.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		TimestampFormat: "15:04:05.000",
	}
}

var (
	dimColor   = color.New(color.FgHiBlack)
	fieldColor = color.New(color.FgCyan)
	levelColor = map[Level]*color.Color{
		DebugLevel: color.New(color.FgBlue),
		InfoLevel:  color.New(color.FgGreen),
		WarnLevel:  color.New(color.FgYellow),
		ErrorLevel: color.New(color.FgRed),
	}
	levelShort = map[Level]string{
		DebugLevel: "DBG",
		InfoLevel:  "INF",
		WarnLevel:  "WRN",
		ErrorLevel: "ERR",
	}
)

// Format formats the entry as text. Fields are printed in key order.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	paint := func(c *color.Color, s string) string {
		if f.DisableColors || c == nil {
			return s
		}
		return c.Sprint(s)
	}

	var b strings.Builder

	if !f.DisableTimestamp {
		format := "2006-01-02T15:04:05.000"
		if f.TimestampFormat != "" {
			format = f.TimestampFormat
		}
		b.WriteString(paint(dimColor, entry.Timestamp.Format(format)))
		b.WriteByte(' ')
	}

	level, ok := levelShort[entry.Level]
	if !ok {
		level = entry.Level.String()
	}
	b.WriteString(paint(levelColor[entry.Level], level))

	if f.EnableCaller && entry.Caller != "" {
		b.WriteString(" (" + paint(dimColor, entry.Caller) + ")")
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", paint(fieldColor, k), entry.Fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}
