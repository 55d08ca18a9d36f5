package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLogLevel(logger.WarnLevel)
	t.Cleanup(func() { logger.SetLogLevel(logger.DebugLevel) })

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Str("role", "cpu_temp").Msg("sensor not found")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "cpu_temp", entry["role"])
	assert.Equal(t, "sensor not found", entry["message"])
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLogLevel(logger.DebugLevel)

	err := errors.New().WithMessage(errors.ErrInvalidPort, "bad port")
	logger.Default().ErrorWithCode(err).Msg("config rejected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "invalid_port", entry["error_code"])
	assert.Equal(t, "bad port", entry["error_message"])
	assert.NotContains(t, entry, "error_data")

	buf.Reset()
	logger.Default().ErrorWithCode(err.WithData(70000)).Msg("config rejected")

	entry = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, 70000.0, entry["error_data"])
}
