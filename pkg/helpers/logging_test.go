package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Not parallel: the tests replace the global logger.
func restoreLogger(t *testing.T) {
	t.Helper()
	logger := log.Logger
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.SetGlobalLevel(level)
	})
}

func TestInitLogging_FileAndWriter(t *testing.T) {
	restoreLogger(t)

	path := filepath.Join(t.TempDir(), "logs", "envirobot.log")
	var buf bytes.Buffer
	require.NoError(t, InitLogging(path, false, &buf))

	log.Info().Str("port", "/dev/ttyACM0").Msg("controller connected")
	log.Debug().Msg("hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "controller connected")
	assert.Contains(t, string(data), `"port":"/dev/ttyACM0"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, buf.String(), "controller connected")
}

func TestInitLogging_Debug(t *testing.T) {
	restoreLogger(t)

	var buf bytes.Buffer
	require.NoError(t, InitLogging("", true, &buf))
	log.Debug().Msg("exchanged")
	assert.Contains(t, buf.String(), "exchanged")
	assert.Contains(t, buf.String(), `"caller"`)
}

func TestLogPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/var/log/bot.log", LogPath("/var/log/bot.log"))
	assert.Equal(t, filepath.Join(os.TempDir(), DefaultLogFile), LogPath(""))
}
