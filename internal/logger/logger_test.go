package logger_test

import (
	"bytes"
	"testing"

	"complaintbot/backend/internal/logger"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithWriter_WritesJSON(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	log := logger.NewWithWriter("info", &buf)

	// Act
	log.Info("complaint queued", zap.String("record_id", "abc"), zap.Int64("reporter_id", 7))

	// Assert
	var entry map[string]any
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "complaint queued", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["record_id"])
	assert.Equal(t, float64(7), entry["reporter_id"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	log := logger.NewWithWriter("warn", &buf)

	// Act
	log.Info("skipped")
	log.Debug("skipped too")

	// Assert
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}
