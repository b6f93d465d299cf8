package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewWriter_JSONRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, slog.LevelInfo, "json")

	logger.Debug("hidden")
	logger.Info("save failed", "error", "boom")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "save failed", line["msg"])
	assert.Equal(t, "boom", line["err"])
	assert.NotContains(t, line, "error")
}

func TestNewWithOptions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldwork.log")
	logger, closer := NewWithOptions(Options{Level: "info", Format: "text", File: path})

	logger.Info("hello", "draft_id", "d1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "draft_id=d1")
}
