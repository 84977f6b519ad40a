package engine

import (
	"github.com/argus-labs/sparseworld/pkg/snapshot"
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// engineConfig holds the configuration read from the environment.
type engineConfig struct {
	// Number of ticks per second.
	TickRate float64 `env:"ENGINE_TICK_RATE" envDefault:"60"`

	// Snapshot storage backend (NOP, MEMORY, REDIS).
	SnapshotStorage string `env:"ENGINE_SNAPSHOT_STORAGE" envDefault:"NOP"`

	// Key the world snapshot is stored under.
	SnapshotKey string `env:"ENGINE_SNAPSHOT_KEY" envDefault:"world"`

	// Redis connection, only used by the REDIS backend.
	RedisAddress  string `env:"ENGINE_REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"ENGINE_REDIS_PASSWORD"`
}

// loadConfig loads the engine configuration from environment variables.
func loadConfig() (engineConfig, error) {
	cfg := engineConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse engine config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *engineConfig) validate() error {
	if cfg.TickRate <= 0 {
		return eris.New("tick rate must be positive")
	}
	if _, err := snapshot.ParseStorageType(cfg.SnapshotStorage); err != nil {
		return err
	}
	if cfg.SnapshotKey == "" {
		return eris.New("snapshot key cannot be empty")
	}
	return nil
}

// applyToOptions applies the configuration values to the given Options.
func (cfg *engineConfig) applyToOptions(opt *Options) {
	storageType, _ := snapshot.ParseStorageType(cfg.SnapshotStorage)

	opt.TickRate = cfg.TickRate
	opt.SnapshotStorageType = storageType
	opt.SnapshotKey = cfg.SnapshotKey
	opt.RedisAddress = cfg.RedisAddress
	opt.RedisPassword = cfg.RedisPassword
}

type Options struct {
	ServiceName         string               // Name used in logs, defaults to "engine"
	TickRate            float64              // Number of ticks per second
	SnapshotStorageType snapshot.StorageType // Snapshot storage backend
	SnapshotKey         string               // Key the world snapshot is stored under
	RedisAddress        string               // Redis host:port for the REDIS backend
	RedisPassword       string               // Redis password for the REDIS backend

	// SnapshotStorage, when set, is used instead of building one from SnapshotStorageType.
	SnapshotStorage snapshot.Storage
}

// newDefaultOptions creates Options with default values.
func newDefaultOptions() Options {
	// Set these to invalid values to force users to pass in the correct options.
	return Options{
		ServiceName:         "engine",
		TickRate:            0,
		SnapshotStorageType: snapshot.StorageTypeNop,
		SnapshotKey:         "",
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.ServiceName != "" {
		opt.ServiceName = newOpt.ServiceName
	}
	if newOpt.TickRate != 0.0 {
		opt.TickRate = newOpt.TickRate
	}
	if newOpt.SnapshotStorageType != snapshot.StorageTypeUndefined {
		opt.SnapshotStorageType = newOpt.SnapshotStorageType
	}
	if newOpt.SnapshotKey != "" {
		opt.SnapshotKey = newOpt.SnapshotKey
	}
	if newOpt.RedisAddress != "" {
		opt.RedisAddress = newOpt.RedisAddress
	}
	if newOpt.RedisPassword != "" {
		opt.RedisPassword = newOpt.RedisPassword
	}
	if newOpt.SnapshotStorage != nil {
		opt.SnapshotStorage = newOpt.SnapshotStorage
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.TickRate <= 0 {
		return eris.New("tick rate must be positive")
	}
	if opt.SnapshotKey == "" {
		return eris.New("snapshot key cannot be empty")
	}
	if opt.SnapshotStorage == nil {
		if !opt.SnapshotStorageType.IsValid() {
			return eris.Errorf("invalid snapshot storage type: %s", opt.SnapshotStorageType)
		}
		if opt.SnapshotStorageType == snapshot.StorageTypeRedis && opt.RedisAddress == "" {
			return eris.New("redis address cannot be empty")
		}
	}
	return nil
}
