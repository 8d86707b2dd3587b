// Package scene declares the slice of the host scene-graph engine this bridge
// consumes: nodes, instantiable templates and the asynchronous asset loader.
// The host implements these; the bridge never touches concrete engine types.
package scene

import (
	"github.com/simstage/bridge/pkg/core"
)

// Node is a live presentation object in the host scene graph.
type Node interface {
	SetActive(bool)
	Active() bool
	// Valid reports whether the underlying engine object still exists. A node
	// destroyed externally must report false; the bridge fails closed on
	// invalid nodes rather than touching them.
	Valid() bool
	SetPosition(core.Vec3)
	Position() core.Vec3
	// Component looks up a named engine component on the node, e.g. a
	// particle or audio driver.
	Component(name string) (any, bool)
	Destroy()
}

// Template is a loaded prefab-like asset that can stamp out nodes.
type Template interface {
	Instantiate() Node
	// Release returns the asset to the host's resource management.
	Release()
}

// Loader performs asynchronous asset loads. Load must never block the caller;
// completion is observed through the returned Pending.
type Loader interface {
	Load(path string) *Pending
}

// ParticleComponent is the component name probed when stopping an effect.
const ParticleComponent = "particle"

// ParticleDriver is the contract of a particle/animation component that can
// be halted when its effect stops.
type ParticleDriver interface {
	Stop()
}
