package log

import (
	"fmt"
	"strings"
)

// Config defines logging configuration.
type Config struct {
	// Level sets the minimum log level (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format sets the output format (text, json).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File, when set, receives a copy of every entry in addition to the console.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// EnableCaller adds the caller location to every entry.
	EnableCaller bool `json:"enable_caller" yaml:"enable_caller" mapstructure:"enable_caller"`

	// DisableColors forces plain text output.
	DisableColors bool `json:"disable_colors" yaml:"disable_colors" mapstructure:"disable_colors"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
	}
}

// ApplyConfig creates a logger from a configuration. Console output always
// goes to stderr so stdout stays free for process output and machine-readable
// plans.
func ApplyConfig(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	options := []LoggerOption{WithLevel(level)}

	switch strings.ToLower(config.Format) {
	case "json":
		options = append(options, WithFormatter(&JSONFormatter{EnableCaller: config.EnableCaller}))
	case "text", "":
		tf := NewTextFormatter()
		tf.EnableCaller = config.EnableCaller
		tf.DisableColors = config.DisableColors
		options = append(options, WithFormatter(tf))
	default:
		return nil, fmt.Errorf("invalid log format: %s", config.Format)
	}

	options = append(options, WithOutput(NewConsoleOutput(WithStderr())))
	if config.File != "" {
		options = append(options, WithOutput(NewFileOutput(config.File)))
	}

	return NewLogger(options...), nil
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
