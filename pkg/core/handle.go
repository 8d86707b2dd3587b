// Package core holds the plain types shared across the simulation/presentation
// boundary: generational entity handles, render commands, and gameplay events.
// It has no dependencies so both sides of the bridge can import it freely.
package core

// Handle identifies a simulation entity independent of storage slot reuse.
// The zero Handle never refers to a live entity.
type Handle struct {
	ID         uint32 `json:"id"`
	Generation uint32 `json:"generation"`
}

// IsZero reports whether the handle refers to no entity.
func (h Handle) IsZero() bool {
	return h.ID == 0 && h.Generation == 0
}

// HandleSource is the ECS-side collaborator that answers liveness queries.
// A handle is alive iff the entity at its ID still carries the same generation;
// implementations must compare both fields.
type HandleSource interface {
	Alive(Handle) bool
}
