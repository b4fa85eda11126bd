package twitch_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fivetwenty-io/twitch-client/pkg/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := twitch.NewSlogLogger(twitch.LogConfig{
		Service: "twitch",
		Version: "1.2.3",
		Level:   "debug",
		Format:  "json",
		Output:  &buf,
	})

	logger.Debug("HTTP Request", map[string]interface{}{"method": "GET", "status_code": 200})

	var record map[string]interface{}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "HTTP Request", record["msg"])
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "twitch", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "GET", record["method"])
	assert.InDelta(t, 200, record["status_code"], 0)
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := twitch.NewSlogLogger(twitch.LogConfig{Level: "warn", Output: &buf})

	logger.Info("hidden", nil)
	assert.Empty(t, buf.String())

	logger.Warn("shown", map[string]interface{}{"b": 2, "a": 1})
	assert.Contains(t, buf.String(), "msg=shown a=1 b=2")
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, twitch.ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, twitch.ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, twitch.ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, twitch.ParseLogLevel("bogus"))
}

func TestWrapSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := twitch.WrapSlog(slog.New(slog.NewTextHandler(&buf, nil)))
	logger.Error("boom", map[string]interface{}{"error": "x"})

	assert.Contains(t, buf.String(), "msg=boom")
	assert.NotNil(t, logger.Slog())
	assert.NotNil(t, twitch.WrapSlog(nil).Slog())
}
