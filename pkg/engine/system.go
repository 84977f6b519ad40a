package engine

import (
	"time"

	"github.com/argus-labs/sparseworld/pkg/assert"
	"github.com/argus-labs/sparseworld/pkg/ecs"
)

// System runs once per tick against the world. dt is the time since the previous tick. Returning
// an error aborts the tick.
type System func(w *ecs.World, dt time.Duration) error

type namedSystem struct {
	name string
	fn   System
}

// RegisterSystem appends a system that runs every tick, in registration order.
//
// Example:
//
//	e.RegisterSystem("movement", func(w *ecs.World, dt time.Duration) error {
//		q := ecs.NewQuery(w, ecs.Write[Position](), ecs.Read[Velocity]())
//		for _, item := range q.Iter() {
//			pos, _ := ecs.RefMut[Position](item)
//			vel, _ := ecs.Ref[Velocity](item)
//			pos.X += vel.X * dt.Seconds()
//		}
//		return nil
//	})
func (e *Engine) RegisterSystem(name string, fn System) {
	e.systems = e.register(e.systems, name, fn)
}

// RegisterInitSystem appends a system that runs once, before the regular systems of the first
// tick. Init systems are skipped when the world was restored from a snapshot.
func (e *Engine) RegisterInitSystem(name string, fn System) {
	e.initSystems = e.register(e.initSystems, name, fn)
}

func (e *Engine) register(systems []namedSystem, name string, fn System) []namedSystem {
	assert.That(fn != nil, "system %s is nil", name)
	assert.That(!e.hasSystem(name), "system %s is already registered", name)
	return append(systems, namedSystem{name: name, fn: fn})
}

func (e *Engine) hasSystem(name string) bool {
	for _, s := range e.initSystems {
		if s.name == name {
			return true
		}
	}
	for _, s := range e.systems {
		if s.name == name {
			return true
		}
	}
	return false
}
