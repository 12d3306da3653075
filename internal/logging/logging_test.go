package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/shelf/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug().Str("author", "Robert Martin").Msg("author created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "author created", entry["message"])
	assert.Equal(t, "Robert Martin", entry["author"])
	assert.Contains(t, entry, "time")
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{Format: "pretty"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("book added")
	out := buf.String()
	assert.Contains(t, out, "book added")
	assert.False(t, strings.HasPrefix(out, "{"), "pretty output must not be JSON")
}

func TestNewAutoDetectsNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LogConfig{}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("ok")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestNewInvalid(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}
