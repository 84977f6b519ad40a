// Package telemetry builds the logger and metrics client shared by the engine, configured from
// the environment and overridable with Options.
package telemetry

import (
	"errors"
	"io"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Telemetry struct {
	Logger zerolog.Logger
	Statsd statsd.ClientInterface

	logFile io.Closer
}

func New(opts Options) (Telemetry, error) {
	config, err := loadConfig()
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to load telemetry config")
	}

	options := newDefaultOptions()
	config.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return Telemetry{}, eris.Wrap(err, "invalid telemetry options")
	}

	client, err := newStatsd(options)
	if err != nil {
		return Telemetry{}, err
	}

	logger, logFile := newLogger(options)
	return Telemetry{
		Logger:  logger,
		Statsd:  client,
		logFile: logFile,
	}, nil
}

// Close flushes metrics and closes the log file, if any.
func (t *Telemetry) Close() error {
	var errs error
	if t.Statsd != nil {
		errs = errors.Join(errs, t.Statsd.Close())
	}
	if t.logFile != nil {
		errs = errors.Join(errs, t.logFile.Close())
	}
	return errs
}

// GetLogger returns a component-specific logger.
func (t *Telemetry) GetLogger(component string) zerolog.Logger {
	return t.Logger.With().Str("component", component).Logger()
}
