package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	c "lautenbacher.net/jigleds/config"
)

// teeWriter holds log output back until a destination exists (the TUI log
// pane is built after logging starts) and copies everything to an optional
// file.
type teeWriter struct {
	mu        sync.Mutex
	pending   bytes.Buffer
	target    io.Writer
	file      *os.File
	buffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	switch {
	case w.buffering:
		w.pending.Write(p)
	case w.target != nil:
		if _, err := w.target.Write(p); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var writer = &teeWriter{}

// Init installs the default slog logger. With bufferOutput set nothing is
// printed until SetOutput is called. A non empty conf.File is appended to.
func Init(bufferOutput bool, conf c.LogConfig) error {
	w := &teeWriter{buffering: bufferOutput}
	if !bufferOutput {
		w.target = os.Stderr
	}
	if conf.File != "" {
		file, err := os.OpenFile(conf.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		w.file = file
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(conf.Level)}
	var handler slog.Handler
	if strings.EqualFold(conf.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	writer = w
	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR to slog levels. Anything else
// becomes INFO.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SetOutput flushes what was buffered to target and switches to live output.
func SetOutput(target io.Writer) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.pending.Len() > 0 {
		if _, err := target.Write(writer.pending.Bytes()); err != nil {
			return err
		}
		writer.pending.Reset()
	}
	writer.target = target
	writer.buffering = false
	return nil
}

// BufferOutput stops live output, e.g. while the TUI is torn down.
func BufferOutput() {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	writer.target = nil
	writer.buffering = true
}

// Close writes out anything still buffered and closes the log file. Without
// a file or target the buffer goes to stderr so shutdown messages survive.
func Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	var firstErr error
	if writer.pending.Len() > 0 {
		var dst io.Writer = os.Stderr
		if writer.file != nil {
			dst = writer.file
		}
		if writer.file != nil || writer.target == nil {
			if _, err := dst.Write(writer.pending.Bytes()); err != nil {
				firstErr = err
			}
		}
	}
	if writer.file != nil {
		if err := writer.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		writer.file = nil
	}
	writer.pending.Reset()
	return firstErr
}
