package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ConsoleOutput writes log entries to stdout, or stderr for errors.
type ConsoleOutput struct {
	mu            sync.Mutex
	useStderr     bool
	errorToStderr bool
	writer        io.Writer
	errorWriter   io.Writer
}

// Write writes the log entry to the console.
func (o *ConsoleOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var writer io.Writer = os.Stdout
	switch {
	case o.writer != nil:
		writer = o.writer
	case o.useStderr:
		writer = os.Stderr
	}

	if entry.Level == ErrorLevel && o.errorToStderr {
		writer = os.Stderr
		if o.errorWriter != nil {
			writer = o.errorWriter
		}
	}

	_, err := writer.Write(formattedEntry)
	return err
}

// Close is a no-op for console output.
func (o *ConsoleOutput) Close() error {
	return nil
}

// ConsoleOutputOption configures a ConsoleOutput.
type ConsoleOutputOption func(*ConsoleOutput)

// WithStderr sends every entry to stderr.
func WithStderr() ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.useStderr = true
	}
}

// WithCustomWriter replaces stdout with writer.
func WithCustomWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.writer = writer
	}
}

// WithCustomErrorWriter replaces stderr with writer for error entries.
func WithCustomErrorWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.errorWriter = writer
	}
}

// NewConsoleOutput creates a ConsoleOutput. Errors go to stderr by default.
func NewConsoleOutput(options ...ConsoleOutputOption) *ConsoleOutput {
	o := &ConsoleOutput{errorToStderr: true}
	for _, option := range options {
		option(o)
	}
	return o
}

// FileOutput appends log entries to a file, creating parent directories on
// first write.
type FileOutput struct {
	mu       sync.Mutex
	file     *os.File
	filename string
}

// NewFileOutput creates a FileOutput for filename.
func NewFileOutput(filename string) *FileOutput {
	return &FileOutput{filename: filename}
}

// Write appends the formatted entry to the file.
func (o *FileOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		if err := os.MkdirAll(filepath.Dir(o.filename), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(o.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		o.file = f
	}

	_, err := o.file.Write(formattedEntry)
	return err
}

// Close closes the underlying file.
func (o *FileOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}
