package main

import (
	"fmt"
	"math"

	"github.com/simstage/bridge/internal/command"
	"github.com/simstage/bridge/internal/event"
	"github.com/simstage/bridge/internal/systems"
	"github.com/simstage/bridge/pkg/core"
)

// demoWorld is the minimal world the host runs: a generational handle
// allocator plus a system registry. The frame loop is single-threaded, so no
// locking is needed.
type demoWorld struct {
	nextID      uint32
	generations map[uint32]uint32
	live        map[core.Handle]bool
	registry    map[systems.ID]systems.System
}

func newDemoWorld() *demoWorld {
	return &demoWorld{
		generations: make(map[uint32]uint32),
		live:        make(map[core.Handle]bool),
		registry:    make(map[systems.ID]systems.System),
	}
}

// Spawn allocates a live handle. Generations start at 1 so the zero Handle
// never aliases a real entity.
func (w *demoWorld) Spawn() core.Handle {
	w.nextID++
	w.generations[w.nextID]++
	h := core.Handle{ID: w.nextID, Generation: w.generations[w.nextID]}
	w.live[h] = true
	return h
}

// Despawn kills a handle; its ID may be reused under a later generation.
func (w *demoWorld) Despawn(h core.Handle) {
	delete(w.live, h)
}

// Alive satisfies core.HandleSource.
func (w *demoWorld) Alive(h core.Handle) bool {
	return w.live[h]
}

// Register installs a system under its ID.
func (w *demoWorld) Register(id systems.ID, sys systems.System) {
	w.registry[id] = sys
}

// System satisfies systems.World.
func (w *demoWorld) System(id systems.ID) (systems.System, bool) {
	sys, ok := w.registry[id]
	return sys, ok
}

// orbiter is one demo entity circling the origin.
type orbiter struct {
	handle core.Handle
	angle  float64
	radius float64
	speed  float64
}

// orbitSystem keeps a ring of entities moving and mirrors their positions
// into the command buffer every fixed tick.
type orbitSystem struct {
	world  *demoWorld
	buffer *command.Buffer

	orbiters []orbiter
	spawned  bool
}

func newOrbitSystem(world *demoWorld, buffer *command.Buffer) *orbitSystem {
	return &orbitSystem{world: world, buffer: buffer}
}

func (s *orbitSystem) Priority() int { return systems.PriorityGameplay }
func (s *orbitSystem) Enabled() bool { return true }

func (s *orbitSystem) Update(_ systems.World, dt float64) {
	if !s.spawned {
		s.spawnRing(4)
		s.spawned = true
	}

	for i := range s.orbiters {
		o := &s.orbiters[i]
		o.angle += o.speed * dt
		s.buffer.Push(core.SetPosition{
			Handle:   o.handle,
			Position: s.positionOf(*o),
		})
	}
}

func (s *orbitSystem) spawnRing(n int) {
	for i := 0; i < n; i++ {
		o := orbiter{
			handle: s.world.Spawn(),
			angle:  2 * math.Pi * float64(i) / float64(n),
			radius: 10 + 2*float64(i),
			speed:  0.5 + 0.25*float64(i),
		}
		s.orbiters = append(s.orbiters, o)
		s.buffer.Push(core.SpawnView{
			Handle:    o.handle,
			PrefabKey: fmt.Sprintf("units/orbiter_%d", i%2),
			Position:  s.positionOf(o),
		})
	}
}

func (s *orbitSystem) positionOf(o orbiter) core.Vec3 {
	return core.Vec3{
		X: o.radius * math.Cos(o.angle),
		Y: 0,
		Z: o.radius * math.Sin(o.angle),
	}
}

// positions exposes current orbiter positions for other systems.
func (s *orbitSystem) positions() map[core.Handle]core.Vec3 {
	out := make(map[core.Handle]core.Vec3, len(s.orbiters))
	for _, o := range s.orbiters {
		out[o.handle] = s.positionOf(o)
	}
	return out
}

// contactSystem watches orbiter separation and raises a collision event on
// close approach. A cooldown per pair keeps a lingering overlap from
// spamming the bus.
type contactSystem struct {
	orbit *orbitSystem
	bus   *event.Bus

	threshold float64
	cooldown  map[[2]core.Handle]float64
}

func newContactSystem(orbit *orbitSystem, bus *event.Bus) *contactSystem {
	return &contactSystem{
		orbit:     orbit,
		bus:       bus,
		threshold: 3,
		cooldown:  make(map[[2]core.Handle]float64),
	}
}

func (s *contactSystem) Priority() int { return systems.PriorityCombat }
func (s *contactSystem) Enabled() bool { return true }

func (s *contactSystem) Update(w systems.World, dt float64) {
	for pair := range s.cooldown {
		s.cooldown[pair] -= dt
		if s.cooldown[pair] <= 0 {
			delete(s.cooldown, pair)
		}
	}

	positions := s.orbit.positions()
	handles := make([]core.Handle, 0, len(positions))
	for h := range positions {
		if w.Alive(h) {
			handles = append(handles, h)
		}
	}

	for i := 0; i < len(handles); i++ {
		for j := i + 1; j < len(handles); j++ {
			a, b := handles[i], handles[j]
			if dist(positions[a], positions[b]) > s.threshold {
				continue
			}
			pair := orderPair(a, b)
			if _, waiting := s.cooldown[pair]; waiting {
				continue
			}
			s.cooldown[pair] = 2
			s.bus.Push(core.CollisionEvent{
				A:     a,
				B:     b,
				Point: midpoint(positions[a], positions[b]),
			})
		}
	}
}

// pulseSystem runs on the render list and emits a heartbeat UI event about
// once per second. The event rides the next fixed tick's bus flush.
type pulseSystem struct {
	bus     *event.Bus
	elapsed float64
	pulses  int
}

func newPulseSystem(bus *event.Bus) *pulseSystem {
	return &pulseSystem{bus: bus}
}

func (s *pulseSystem) Priority() int { return systems.PriorityCamera }
func (s *pulseSystem) Enabled() bool { return true }

func (s *pulseSystem) Update(_ systems.World, dt float64) {
	s.elapsed += dt
	if s.elapsed < 1 {
		return
	}
	s.elapsed = 0
	s.pulses++
	s.bus.Push(core.UIEvent{
		Name:    "heartbeat",
		Payload: fmt.Sprintf("%d", s.pulses),
	})
}

func dist(a, b core.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func midpoint(a, b core.Vec3) core.Vec3 {
	return core.Vec3{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}

func orderPair(a, b core.Handle) [2]core.Handle {
	if b.ID < a.ID {
		a, b = b, a
	}
	return [2]core.Handle{a, b}
}
