package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/ledsentry/config"
)

func TestBufferedUntilInit(t *testing.T) {
	Bootstrap()

	slog.Info("Early log")

	var out bytes.Buffer
	require.NoError(t, Init(config.LoggingConfig{Level: "DEBUG", Format: "text"}, &out))

	assert.Contains(t, out.String(), "Early log", "buffered log should be flushed on Init")

	slog.Debug("Live log")
	assert.Contains(t, out.String(), "Live log", "live log should go straight to the target")

	require.NoError(t, Close())
}

func TestLevelFiltering(t *testing.T) {
	Bootstrap()

	var out bytes.Buffer
	require.NoError(t, Init(config.LoggingConfig{Level: "WARN", Format: "text"}, &out))

	slog.Info("Quiet log")
	slog.Warn("Loud log")

	assert.NotContains(t, out.String(), "Quiet log")
	assert.Contains(t, out.String(), "Loud log")
	require.NoError(t, Close())
}

func TestFileLogging_JSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "ledsentry.log")
	Bootstrap()

	var out bytes.Buffer
	require.NoError(t, Init(config.LoggingConfig{Level: "INFO", Format: "json", File: logFile}, &out))

	slog.Info("File log", "key", "value")
	require.NoError(t, Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"File log"`)
	assert.Contains(t, string(content), `"key":"value"`)
	assert.Contains(t, out.String(), `"msg":"File log"`, "file logging tees, it does not replace the target")
}

func TestInit_BadFile(t *testing.T) {
	Bootstrap()
	err := Init(config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestStderrFallback(t *testing.T) {
	Bootstrap()

	slog.Error("Startup failure log")

	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	var wg sync.WaitGroup
	wg.Add(1)
	var capturedOutput string
	go func() {
		defer wg.Done()
		buf := make([]byte, 1024)
		n, _ := r.Read(buf)
		capturedOutput = string(buf[:n])
	}()

	err := Close()
	w.Close()
	wg.Wait()
	os.Stderr = oldStderr

	require.NoError(t, err)
	assert.True(t, strings.Contains(capturedOutput, "Startup failure log"),
		"Expected buffered log to be written to stderr, got: %s", capturedOutput)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
