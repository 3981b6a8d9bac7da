package logging

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	c "lautenbacher.net/jigleds/config"
)

type failingWriter struct{}

func (fw *failingWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func TestTUIMode(t *testing.T) {
	require.NoError(t, Init(true, c.LogConfig{Level: "DEBUG", Format: "text"}))

	slog.Info("Initial log")

	var pane bytes.Buffer
	require.NoError(t, SetOutput(&pane))
	assert.Contains(t, pane.String(), "Initial log", "buffered output must be flushed to the pane")

	slog.Debug("Live log")
	assert.Contains(t, pane.String(), "Live log")

	BufferOutput()
	slog.Info("Buffered log")
	assert.NotContains(t, pane.String(), "Buffered log")

	// Buffered lines end up on stderr when nothing else is left
	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	closeErr := Close()
	w.Close()
	os.Stderr = oldStderr
	captured, _ := io.ReadAll(r)

	require.NoError(t, closeErr)
	assert.Contains(t, string(captured), "Buffered log")
}

func TestFileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, Init(false, c.LogConfig{Level: "INFO", Format: "json", File: logFile}))
	require.NoError(t, SetOutput(io.Discard))

	slog.Info("RPI log", "key", "value")
	slog.Debug("filtered")
	require.NoError(t, Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"RPI log"`)
	assert.Contains(t, string(content), `"key":"value"`)
	assert.NotContains(t, string(content), "filtered", "DEBUG is below the configured level")
}

func TestInit_BadFile(t *testing.T) {
	err := Init(false, c.LogConfig{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestWriteErrorIsReported(t *testing.T) {
	require.NoError(t, Init(false, c.LogConfig{}))
	require.NoError(t, SetOutput(&failingWriter{}))

	_, err := writer.Write([]byte("x"))
	assert.Error(t, err)
	require.NoError(t, Close())
}
