package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesFileAndTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var stderr bytes.Buffer

	logger, cleanup, err := newLogger(logOptions{Level: "info", Format: "json", Output: path, Tee: true}, &stderr)
	require.NoError(t, err)
	logger.Info("upstream ready")
	logger.Debug("hidden")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"upstream ready"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, stderr.String(), "upstream ready")
}

func TestNewLoggerFileWithoutTeeKeepsStderrQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var stderr bytes.Buffer

	logger, cleanup, err := newLogger(logOptions{Level: "debug", Format: "console", Output: path}, &stderr)
	require.NoError(t, err)
	logger.Debug("resolved upstream headers")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "resolved upstream headers")
	assert.Empty(t, stderr.String())
}

func TestNewLoggerRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    logOptions
		wantErr string
	}{
		{"stdout output", logOptions{Level: "info", Output: "stdout"}, "stdio transport"},
		{"unknown format", logOptions{Level: "info", Format: "xml"}, "invalid log format"},
		{"unknown level", logOptions{Level: "verbose"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newLogger(tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
