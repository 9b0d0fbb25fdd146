package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugSuppressedBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, false)
	log.Debug("debug message")
	assert.Empty(t, buf.String())
}

func TestDebugEmittedAtDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, false)
	log.Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")
}

func TestInfoIncludesKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, false)
	log.Info("loaded config", "path", "monorepo.yaml")
	output := buf.String()
	assert.Contains(t, output, "loaded config")
	assert.Contains(t, output, "path")
	assert.Contains(t, output, "monorepo.yaml")
}

func TestQuietModeSuppressesInfoAndWarnButNotError(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, true)

	log.Info("should not appear")
	log.Warn("should not appear")
	assert.Empty(t, buf.String())

	log.Error("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetLevelChangesThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, false)
	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.SetLevel(LevelDebug)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSetQuietTogglesSuppression(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, false)
	log.SetQuiet(true)
	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.SetQuiet(false)
	log.Info("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "info", want: LevelInfo},
		{input: "warn", want: LevelWarn},
		{input: "warning", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "INFO", want: LevelInfo},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAndSetGlobal(t *testing.T) {
	var buf bytes.Buffer
	replacement := New(&buf, LevelInfo, false)

	original := Get()
	defer SetGlobal(original)

	SetGlobal(replacement)
	Info("package-level call")
	assert.Contains(t, buf.String(), "package-level call")
}
