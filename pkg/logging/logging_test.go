package logging

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/rsv/pkg/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.Disabled, ParseLevel("disabled"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestNew_JSON(t *testing.T) {
	t.Setenv(EnvLevel, "")

	var out bytes.Buffer
	logger := New("rsv-test", config.Logging{Level: "warn", Format: "json"}, &out)

	logger.Info().Msg("hidden")
	logger.Warn().Int("rows", 3).Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "rsv-test", entry["app"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, float64(3), entry["rows"])
}

func TestNew_EnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLevel, "debug")

	var out bytes.Buffer
	logger := New("rsv-test", config.Logging{Level: "error", Format: "json"}, &out)
	logger.Debug().Msg("visible")

	assert.Contains(t, out.String(), "visible")
}

func TestNew_Console(t *testing.T) {
	t.Setenv(EnvLevel, "")

	var out bytes.Buffer
	logger := New("rsv-test", config.Logging{Level: "info"}, &out)
	logger.Info().Msg("hello")

	assert.Contains(t, out.String(), "hello")
	assert.NotContains(t, out.String(), `"message"`)
}
