// Package engine drives an ecs.World with a fixed-rate tick loop, runs registered systems each
// tick, and saves or restores the world through snapshot storage.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/argus-labs/sparseworld/pkg/assert"
	"github.com/argus-labs/sparseworld/pkg/ecs"
	"github.com/argus-labs/sparseworld/pkg/snapshot"
	"github.com/argus-labs/sparseworld/pkg/telemetry"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Engine owns a World and the systems that update it.
type Engine struct {
	world *ecs.World

	initDone    bool
	initSystems []namedSystem
	systems     []namedSystem
	tickHeight  uint64

	storage snapshot.Storage
	options Options
	tel     telemetry.Telemetry
	logger  zerolog.Logger
}

// New creates an engine. Options override the values read from the environment.
func New(opts Options) (*Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load engine config")
	}
	options := newDefaultOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid engine options")
	}

	tel, err := telemetry.New(telemetry.Options{ServiceName: options.ServiceName})
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize telemetry")
	}

	storage, err := newStorage(options)
	if err != nil {
		_ = tel.Close()
		return nil, err
	}

	logger := tel.GetLogger("engine")
	logger.Info().
		Float64("tick_rate", options.TickRate).
		Str("snapshot_storage", options.SnapshotStorageType.String()).
		Msg("engine created")

	return &Engine{
		world:       ecs.NewWorld(ecs.WithLogger(tel.GetLogger("ecs"))),
		initSystems: make([]namedSystem, 0),
		systems:     make([]namedSystem, 0),
		storage:     storage,
		options:     options,
		tel:         tel,
		logger:      logger,
	}, nil
}

func newStorage(opts Options) (snapshot.Storage, error) {
	if opts.SnapshotStorage != nil {
		return opts.SnapshotStorage, nil
	}

	switch opts.SnapshotStorageType {
	case snapshot.StorageTypeNop:
		return snapshot.NewNopStorage(), nil
	case snapshot.StorageTypeMemory:
		return snapshot.NewMemoryStorage(), nil
	case snapshot.StorageTypeRedis:
		storage, err := snapshot.NewRedisStorage(context.Background(), snapshot.RedisStorageOptions{
			Address:  opts.RedisAddress,
			Password: opts.RedisPassword,
		})
		if err != nil {
			return nil, eris.Wrap(err, "failed to create redis snapshot storage")
		}
		return storage, nil
	case snapshot.StorageTypeUndefined:
	}
	assert.That(false, "unreachable")
	return nil, nil //nolint:nilnil // unreachable
}

// World returns the engine's world.
func (e *Engine) World() *ecs.World {
	return e.world
}

// TickHeight returns the number of completed ticks.
func (e *Engine) TickHeight() uint64 {
	return e.tickHeight
}

// Tick runs the init systems if they haven't run yet, then every system in registration order.
// The first failing system aborts the tick; changes made by earlier systems are kept.
func (e *Engine) Tick(dt time.Duration) error {
	start := time.Now()

	if !e.initDone {
		for _, s := range e.initSystems {
			if err := e.runSystem(s, dt); err != nil {
				return eris.Wrapf(err, "init system %s failed", s.name)
			}
		}
		e.initDone = true
	}

	for _, s := range e.systems {
		if err := e.runSystem(s, dt); err != nil {
			return eris.Wrapf(err, "system %s failed", s.name)
		}
	}

	e.tickHeight++

	_ = e.tel.Statsd.Timing("tick.duration", time.Since(start), nil, 1)
	_ = e.tel.Statsd.Gauge("entities.live", float64(e.world.Len()), nil, 1)
	return nil
}

func (e *Engine) runSystem(s namedSystem, dt time.Duration) error {
	if err := s.fn(e.world, dt); err != nil {
		e.logger.Error().Err(err).Str("system", s.name).Uint64("tick", e.tickHeight).Msg("system failed")
		_ = e.tel.Statsd.Incr("system.error", []string{"system:" + s.name}, 1)
		return err
	}
	return nil
}

// Run restores the last snapshot, if any, then ticks at the configured rate until ctx is done.
// The world is saved before returning. A failing tick stops the loop.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Restore(ctx); err != nil {
		var restoreErr *ecs.RestoreError
		switch {
		case errors.Is(err, snapshot.ErrSnapshotNotFound):
		case errors.As(err, &restoreErr):
			e.logger.Warn().Err(err).Msg("world partially restored")
		default:
			return eris.Wrap(err, "failed to restore world")
		}
	}

	interval := time.Duration(float64(time.Second) / e.options.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info().Dur("interval", interval).Msg("starting tick loop")

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := e.Tick(dt); err != nil {
				return eris.Wrap(err, "failed to run tick")
			}
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Save(saveCtx); err != nil {
				e.logger.Error().Err(err).Msg("failed to save world on shutdown")
			}
			return ctx.Err()
		}
	}
}

// Save serializes the world and stores it under the configured key.
func (e *Engine) Save(ctx context.Context) error {
	data, err := e.world.Serialize()
	if err != nil {
		return eris.Wrap(err, "failed to serialize world")
	}
	if err := e.storage.Store(ctx, e.options.SnapshotKey, data); err != nil {
		return eris.Wrap(err, "failed to store snapshot")
	}

	e.logger.Info().Uint64("tick", e.tickHeight).Int("bytes", len(data)).Msg("world saved")
	return nil
}

// Restore loads the snapshot stored under the configured key into the world. Init systems will
// not run afterwards. Tags that fail to decode are logged and reported in the returned
// *ecs.RestoreError, the rest of the world is still restored.
func (e *Engine) Restore(ctx context.Context) error {
	data, err := e.storage.Load(ctx, e.options.SnapshotKey)
	if err != nil {
		if errors.Is(err, snapshot.ErrSnapshotNotFound) {
			e.logger.Info().Str("key", e.options.SnapshotKey).Msg("no snapshot found, starting fresh")
		}
		return eris.Wrap(err, "failed to load snapshot")
	}

	if err := e.world.Deserialize(data); err != nil {
		var restoreErr *ecs.RestoreError
		if !errors.As(err, &restoreErr) {
			return eris.Wrap(err, "failed to deserialize world")
		}
		e.initDone = true
		return err
	}

	// Mark init as done to prevent re-running init systems after restore.
	e.initDone = true
	e.logger.Info().Int("entities", e.world.Len()).Msg("world restored")
	return nil
}

// Close releases the snapshot storage and telemetry.
func (e *Engine) Close() error {
	e.logger.Info().Msg("shutting down engine")

	var errs error
	if err := e.storage.Close(); err != nil {
		errs = errors.Join(errs, eris.Wrap(err, "failed to close snapshot storage"))
	}
	if err := e.tel.Close(); err != nil {
		errs = errors.Join(errs, eris.Wrap(err, "failed to close telemetry"))
	}
	return errs
}
