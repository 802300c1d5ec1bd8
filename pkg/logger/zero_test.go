package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/pkg/logger"
)

func TestZeroLoggerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewZero(&buf)

	log.Info("session established", "user", "a@b.com", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session established", entry["message"])
	assert.Equal(t, "a@b.com", entry["user"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, "info", entry["level"])
}

func TestZeroLoggerSkipsMalformedPairs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewZero(&buf)

	// non-string key and a dangling value are dropped, the message survives
	log.Warn("odd args", 42, "x", "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "odd args", entry["message"])
}

func TestNopDiscardsEverything(t *testing.T) {
	log := logger.Nop()
	log.Error("nothing happens")
	log.Debug("still nothing", "k", "v")
}
