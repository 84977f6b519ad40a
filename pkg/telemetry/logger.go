package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger creates a logger with the specified format. The returned closer is non-nil only when
// logs go to a rotating file.
func newLogger(opts Options) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)
	if opts.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.LogFileMaxSizeMB,
			MaxBackups: opts.LogFileMaxBackups,
			LocalTime:  true,
		}
		out, closer = file, file
	}

	return buildLogger(out, opts.LogFormat, level).
		With().
		Str("service", opts.ServiceName).
		Logger(), closer
}

// buildLogger wraps out in the writer for format.
func buildLogger(out io.Writer, format LogFormat, level zerolog.Level) zerolog.Logger {
	writer := out
	if format == LogFormatPretty {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout,
		}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
