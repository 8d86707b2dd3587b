// Package systems defines the contracts between the bridge and the external
// ECS world's systems, and the priority-ordered execution list the scheduler
// runs them through.
package systems

import (
	"github.com/simstage/bridge/pkg/core"
)

// ID is the stable registration identity of a system. The sorted list stores
// IDs, not instances; instances are resolved through the world each update so
// systems can be swapped or disabled without touching the list.
type ID string

// System is one unit of simulation or render work. Priority is read fresh at
// every sort, so a mutated priority takes effect after MarkDirty + Update.
type System interface {
	// Priority orders execution within a tick; lower runs first.
	Priority() int
	// Enabled systems run; disabled systems are skipped without being removed.
	Enabled() bool
	// Update advances the system by dt seconds.
	Update(w World, dt float64)
}

// World is the slice of the external ECS this bridge consumes: system
// resolution by ID and handle liveness checks.
type World interface {
	core.HandleSource

	// System resolves a registered system instance, reporting false when the
	// ID is not registered in the world.
	System(id ID) (System, bool)
}

// Reference execution bands; concrete systems pick values inside or between
// them. Lower runs first.
const (
	PriorityInput    = 100
	PriorityGameplay = 200
	PriorityCombat   = 300
	PriorityCleanup  = 800
	PriorityInterp   = 900
	PriorityCamera   = 950
)
