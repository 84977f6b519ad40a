package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/argus-labs/sparseworld/pkg/ecs"
	"github.com/argus-labs/sparseworld/pkg/engine"
	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

const ballCount = 1000

func main() {
	if os.Getenv("PROFILE") == "cpu" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	e, err := engine.New(engine.Options{ServiceName: "bouncing", TickRate: 30})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}
	defer func() {
		if err := e.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close engine")
		}
	}()

	w := e.World()
	must(ecs.RegisterComponent[Position](w, "position"))
	must(ecs.RegisterComponent[Velocity](w, "velocity"))
	must(ecs.RegisterResource[Bounds](w, "bounds"))

	changes := w.Events().Subscribe()

	e.RegisterInitSystem("spawn", spawnSystem)
	e.RegisterSystem("movement", movementSystem)
	e.RegisterSystem("bounce", bounceSystem)
	e.RegisterSystem("report", func(w *ecs.World, _ time.Duration) error {
		if n := len(changes.Read()); n > 0 {
			log.Info().Int("changes", n).Int("entities", w.Len()).Msg("world changed")
		}
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("engine stopped")
	}
}

func spawnSystem(w *ecs.World, _ time.Duration) error {
	ecs.SetResource(w, Bounds{Width: 800, Height: 600})

	for range ballCount {
		ball, err := w.Spawn()
		if err != nil {
			return err
		}
		if err := ecs.Insert(w, ball, Position{X: rand.Float64() * 800, Y: rand.Float64() * 600}); err != nil {
			return err
		}
		if err := ecs.Insert(w, ball, Velocity{X: rand.Float64()*200 - 100, Y: rand.Float64()*200 - 100}); err != nil {
			return err
		}
	}
	return nil
}

func movementSystem(w *ecs.World, dt time.Duration) error {
	for _, item := range ecs.NewQuery(w, ecs.Write[Position](), ecs.Read[Velocity]()).Iter() {
		pos, _ := ecs.RefMut[Position](item)
		vel, _ := ecs.Ref[Velocity](item)
		pos.X += vel.X * dt.Seconds()
		pos.Y += vel.Y * dt.Seconds()
	}
	return nil
}

func bounceSystem(w *ecs.World, _ time.Duration) error {
	bounds, ok := ecs.Resource[Bounds](w)
	if !ok {
		return eris.New("bounds resource missing")
	}

	for _, item := range ecs.NewQuery(w, ecs.Write[Position](), ecs.Write[Velocity]()).Iter() {
		pos, _ := ecs.RefMut[Position](item)
		vel, _ := ecs.RefMut[Velocity](item)
		if pos.X < 0 || pos.X > bounds.Width {
			vel.X = -vel.X
			pos.X = clamp(pos.X, 0, bounds.Width)
		}
		if pos.Y < 0 || pos.Y > bounds.Height {
			vel.Y = -vel.Y
			pos.Y = clamp(pos.Y, 0, bounds.Height)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func must(err error) {
	if err != nil {
		panic(err.Error())
	}
}
