package telemetry

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Config struct {
	// Log level configuration ("trace", "debug", "info", "warn", "error").
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Log format configuration ("json", "pretty").
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// LogFile, when set, sends logs to a rotating file instead of stdout.
	LogFile string `env:"LOG_FILE"`

	// LogFileMaxSizeMB is the size at which the log file is rotated.
	LogFileMaxSizeMB int `env:"LOG_FILE_MAX_SIZE_MB" envDefault:"100"`

	// LogFileMaxBackups is the number of rotated files to keep.
	LogFileMaxBackups int `env:"LOG_FILE_MAX_BACKUPS" envDefault:"3"`

	// StatsdAddress is the host:port of the statsd agent. Metrics are discarded when empty.
	StatsdAddress string `env:"STATSD_ADDRESS"`

	// StatsdNamespace is prepended to every metric name.
	StatsdNamespace string `env:"STATSD_NAMESPACE" envDefault:"sparseworld."`
}

// loadConfig loads the configuration from environment variables.
func loadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse telemetry config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate telemetry config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *Config) validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'trace', 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}

	if ParseLogFormat(cfg.LogFormat) == LogFormatUndefined {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}

	if cfg.LogFileMaxSizeMB <= 0 {
		return eris.New("log file max size must be positive")
	}

	if cfg.LogFileMaxBackups < 0 {
		return eris.New("log file max backups cannot be negative")
	}

	return nil
}

func (cfg *Config) applyToOptions(opt *Options) {
	opt.LogLevel = cfg.LogLevel
	opt.LogFormat = ParseLogFormat(cfg.LogFormat)
	opt.LogFile = cfg.LogFile
	opt.LogFileMaxSizeMB = cfg.LogFileMaxSizeMB
	opt.LogFileMaxBackups = cfg.LogFileMaxBackups
	opt.StatsdAddress = cfg.StatsdAddress
	opt.StatsdNamespace = cfg.StatsdNamespace
}

type Options struct {
	ServiceName       string    // Added to every log line as "service"
	LogLevel          string    // zerolog level name
	LogFormat         LogFormat // Log output format
	LogFile           string    // Rotating log file path, stdout when empty
	LogFileMaxSizeMB  int
	LogFileMaxBackups int
	StatsdAddress     string
	StatsdNamespace   string
}

func newDefaultOptions() Options {
	// Set these to invalid values to force users to pass in the correct options.
	return Options{
		ServiceName: "",
		LogLevel:    "",
		LogFormat:   LogFormatUndefined,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.ServiceName != "" {
		opt.ServiceName = newOpt.ServiceName
	}
	if newOpt.LogLevel != "" {
		opt.LogLevel = newOpt.LogLevel
	}
	if newOpt.LogFormat != LogFormatUndefined {
		opt.LogFormat = newOpt.LogFormat
	}
	if newOpt.LogFile != "" {
		opt.LogFile = newOpt.LogFile
	}
	if newOpt.LogFileMaxSizeMB != 0 {
		opt.LogFileMaxSizeMB = newOpt.LogFileMaxSizeMB
	}
	if newOpt.LogFileMaxBackups != 0 {
		opt.LogFileMaxBackups = newOpt.LogFileMaxBackups
	}
	if newOpt.StatsdAddress != "" {
		opt.StatsdAddress = newOpt.StatsdAddress
	}
	if newOpt.StatsdNamespace != "" {
		opt.StatsdNamespace = newOpt.StatsdNamespace
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.ServiceName == "" {
		return eris.New("service name cannot be empty")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(opt.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'trace', 'debug', 'info', 'warn', or 'error')", opt.LogLevel)
	}
	if opt.LogFormat == LogFormatUndefined {
		return eris.New("log format must be specified")
	}
	if opt.LogFile != "" && opt.LogFileMaxSizeMB <= 0 {
		return eris.New("log file max size must be positive")
	}
	return nil
}

// LogFormat represents the log output format.
type LogFormat uint8

const (
	LogFormatUndefined LogFormat = iota // Used as the zero value
	LogFormatJSON                       // Outputs structured JSON logs
	LogFormatPretty                     // Outputs human-readable console logs
)

const (
	jsonFormatString      = "json"
	prettyFormatString    = "pretty"
	undefinedFormatString = "undefined"
)

func (f LogFormat) String() string {
	switch f {
	case LogFormatUndefined:
		return undefinedFormatString
	case LogFormatJSON:
		return jsonFormatString
	case LogFormatPretty:
		return prettyFormatString
	default:
		return undefinedFormatString
	}
}

// ParseLogFormat converts a string to LogFormat enum.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case jsonFormatString:
		return LogFormatJSON
	case prettyFormatString:
		return LogFormatPretty
	default:
		return LogFormatUndefined
	}
}
