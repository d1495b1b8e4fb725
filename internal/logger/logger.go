package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikurage/project-management-api/internal/config"
)

// New builds the process logger. Local runs get a human readable console
// writer, everything else writes JSON lines to stdout.
func New(env string) zerolog.Logger {
	zerolog.TimestampFieldName = "timestamp"

	w := io.Writer(os.Stdout)
	level := zerolog.InfoLevel

	switch env {
	case config.EnvLocal:
		level = zerolog.DebugLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
	case config.EnvDev:
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}
