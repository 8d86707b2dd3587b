// Package sched orchestrates fixed-step simulation advancement and
// variable-step render advancement, and owns the flush timing of the command
// buffer and event bus.
package sched

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/simstage/bridge/internal/command"
	"github.com/simstage/bridge/internal/event"
	"github.com/simstage/bridge/internal/systems"
	"github.com/simstage/bridge/pkg/core"
)

// Config controls the fixed-step loop. All durations are in seconds.
type Config struct {
	// FixedDelta is the simulation time step. Defaults to 1/60.
	FixedDelta float64
	// MaxAccumulator bounds carried-over time, capping catch-up work after a
	// stall. Defaults to 0.25.
	MaxAccumulator float64
}

// DefaultConfig returns the standard 60 Hz configuration.
func DefaultConfig() Config {
	return Config{
		FixedDelta:     1.0 / 60.0,
		MaxAccumulator: 0.25,
	}
}

func (c Config) validate() error {
	if c.FixedDelta <= 0 {
		return fmt.Errorf("fixedDelta must be positive, got %v", c.FixedDelta)
	}
	if c.MaxAccumulator <= 0 {
		return fmt.Errorf("maxAccumulator must be positive, got %v", c.MaxAccumulator)
	}
	return nil
}

// Scheduler advances simulation systems at a constant tick rate regardless of
// render framerate. Fixed-priority systems run zero or more times per
// StepFixed call depending on accumulated time; render-priority systems run
// exactly once per StepRender call. Single-threaded: all methods must be
// called from the host's frame loop.
type Scheduler struct {
	world  systems.World
	buffer *command.Buffer
	bus    *event.Bus
	cfg    Config

	fixed  *systems.SortedList
	render *systems.SortedList

	accumulator float64
	tickCount   uint64

	ticksTotal      metric.Int64Counter
	commandsFlushed metric.Int64Counter
	accGauge        metric.Float64ObservableGauge
}

// New creates a scheduler over the given world, command buffer and event bus.
// A missing collaborator or an invalid config is a programmer error and is
// returned immediately. Metrics register against the global OTel meter, which
// is a no-op when no provider is configured.
func New(world systems.World, buffer *command.Buffer, bus *event.Bus, cfg Config) (*Scheduler, error) {
	if world == nil {
		return nil, fmt.Errorf("world is required")
	}
	if buffer == nil {
		return nil, fmt.Errorf("command buffer is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}

	s := &Scheduler{
		world:  world,
		buffer: buffer,
		bus:    bus,
		cfg:    cfg,
		fixed:  systems.NewSortedList(),
		render: systems.NewSortedList(),
	}

	m := meter()

	var err error

	s.ticksTotal, err = m.Int64Counter(
		"scheduler.ticks.total",
		metric.WithDescription("Total fixed simulation ticks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	s.commandsFlushed, err = m.Int64Counter(
		"scheduler.commands.flushed",
		metric.WithDescription("Total render commands drained to presentation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flushed counter: %w", err)
	}

	s.accGauge, err = m.Float64ObservableGauge(
		"scheduler.accumulator.seconds",
		metric.WithDescription("Carried-over simulation time"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating accumulator gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveFloat64(s.accGauge, s.accumulator)
			return nil
		},
		s.accGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering accumulator callback: %w", err)
	}

	return s, nil
}

// FixedSystems returns the fixed-tick execution list.
func (s *Scheduler) FixedSystems() *systems.SortedList { return s.fixed }

// RenderSystems returns the per-frame execution list.
func (s *Scheduler) RenderSystems() *systems.SortedList { return s.render }

// StepFixed accumulates dt seconds of real time and runs as many fixed ticks
// as the accumulator affords. The accumulator is clamped to MaxAccumulator
// before ticking, so a long stall never triggers unbounded catch-up. The event
// bus is flushed once per tick, after that tick's systems have run, keeping
// event delivery deterministic relative to tick boundaries.
func (s *Scheduler) StepFixed(dt float64) {
	if dt < 0 {
		dt = 0
	}
	s.accumulator += dt
	if s.accumulator > s.cfg.MaxAccumulator {
		s.accumulator = s.cfg.MaxAccumulator
	}

	for s.accumulator >= s.cfg.FixedDelta {
		s.fixed.Update(s.world, s.cfg.FixedDelta)
		s.bus.Flush()
		s.accumulator -= s.cfg.FixedDelta
		s.tickCount++
		s.ticksTotal.Add(context.Background(), 1)
	}
}

// StepRender runs the render-priority systems exactly once, independent of the
// accumulator. Fixed-priority systems never run here.
func (s *Scheduler) StepRender(dt float64) {
	s.render.Update(s.world, dt)
}

// FlushCommands drains all buffered render commands in push order, clearing
// the buffer. Empty buffer yields an empty slice.
func (s *Scheduler) FlushCommands() []core.Command {
	cmds := s.buffer.Flush()
	if n := len(cmds); n > 0 {
		s.commandsFlushed.Add(context.Background(), int64(n))
	}
	return cmds
}

// Accumulator returns the carried-over simulation time in seconds.
func (s *Scheduler) Accumulator() float64 {
	return s.accumulator
}

// ResetAccumulator zeroes carried-over time, e.g. after a scene transition.
func (s *Scheduler) ResetAccumulator() {
	s.accumulator = 0
}

// TickCount returns the total number of fixed ticks executed.
func (s *Scheduler) TickCount() uint64 {
	return s.tickCount
}

// PendingCommands returns the number of buffered, undrained commands.
func (s *Scheduler) PendingCommands() int {
	return s.buffer.Count()
}

// PendingEvents returns the number of queued, undelivered events.
func (s *Scheduler) PendingEvents() int {
	return s.bus.EventCount()
}
