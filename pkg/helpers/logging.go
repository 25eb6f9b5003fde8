// Package helpers holds small pieces shared by the envirobot commands.
package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultLogFile is the log file name used when none is configured.
const DefaultLogFile = "envirobot.log"

// LogPath returns the configured log file, or DefaultLogFile in the temp dir.
func LogPath(configured string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(os.TempDir(), DefaultLogFile)
}

// InitLogging points the global zerolog logger at a rotating file at path
// plus any extra writers. An empty path logs to the writers only.
func InitLogging(path string, debug bool, writers ...io.Writer) error {
	var logWriters []io.Writer
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		logWriters = append(logWriters, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    1,
			MaxBackups: 2,
		})
	}
	logWriters = append(logWriters, writers...)
	if len(logWriters) == 0 {
		logWriters = append(logWriters, io.Discard)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}
