package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. Dev gets a console writer and debug
// level; everything else logs JSON at info.
func New(env string) zerolog.Logger {
	zerolog.TimestampFieldName = "timestamp"

	w := io.Writer(os.Stdout)
	level := zerolog.InfoLevel

	if env == "dev" || env == "local" {
		level = zerolog.DebugLevel
		cw := zerolog.NewConsoleWriter()
		cw.TimeFormat = time.DateTime
		cw.Out = os.Stdout
		w = cw
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
