package process

import (
	"bytes"
	"io"
	"sync"

	"github.com/fatih/color"
)

// prefixColors cycles across processes so interleaved screen output stays
// readable.
var prefixColors = []color.Attribute{
	color.FgCyan,
	color.FgGreen,
	color.FgMagenta,
	color.FgYellow,
	color.FgBlue,
	color.FgHiCyan,
	color.FgHiGreen,
	color.FgHiMagenta,
}

func processPrefix(id string, index int, colored bool) string {
	prefix := "[" + id + "] "
	if !colored {
		return prefix
	}
	c := color.New(prefixColors[index%len(prefixColors)])
	c.EnableColor()
	return c.Sprint(prefix)
}

// lineWriter copies complete lines to dst, each preceded by prefix. Writers
// sharing a console share mu so lines of different processes never interleave.
type lineWriter struct {
	mu     *sync.Mutex
	dst    io.Writer
	prefix string
	buf    []byte
}

func newLineWriter(mu *sync.Mutex, dst io.Writer, prefix string) *lineWriter {
	return &lineWriter{mu: mu, dst: dst, prefix: prefix}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if err := w.emit(w.buf[:i+1]); err != nil {
			return len(p), err
		}
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}

// Flush writes a trailing partial line.
func (w *lineWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	line := append(w.buf, '\n')
	w.buf = nil
	return w.emit(line)
}

func (w *lineWriter) emit(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.dst, w.prefix); err != nil {
		return err
	}
	_, err := w.dst.Write(line)
	return err
}
