package core

// CommandKind discriminates the render command union.
type CommandKind string

const (
	KindSpawnView   CommandKind = "spawn_view"
	KindSetPosition CommandKind = "set_position"
	KindPlayAnim    CommandKind = "play_anim"
	KindDestroyView CommandKind = "destroy_view"
)

// Command is a one-way instruction from a simulation system to the
// presentation layer. Commands are immutable once pushed; Clone returns a
// structurally independent copy so a drained batch can be handed to
// presentation code without aliasing buffer state.
type Command interface {
	Kind() CommandKind
	Target() Handle
	Clone() Command
}

// SpawnView requests a presentation node for the entity, instantiated from
// the prefab identified by PrefabKey.
type SpawnView struct {
	Handle    Handle `json:"handle"`
	PrefabKey string `json:"prefabKey"`
	Position  Vec3   `json:"position"`
}

func (c SpawnView) Kind() CommandKind { return KindSpawnView }
func (c SpawnView) Target() Handle    { return c.Handle }
func (c SpawnView) Clone() Command    { return c }

// SetPosition moves the entity's bound node.
type SetPosition struct {
	Handle   Handle `json:"handle"`
	Position Vec3   `json:"position"`
}

func (c SetPosition) Kind() CommandKind { return KindSetPosition }
func (c SetPosition) Target() Handle    { return c.Handle }
func (c SetPosition) Clone() Command    { return c }

// PlayAnim starts the named animation on the entity's bound node.
type PlayAnim struct {
	Handle Handle `json:"handle"`
	Name   string `json:"name"`
}

func (c PlayAnim) Kind() CommandKind { return KindPlayAnim }
func (c PlayAnim) Target() Handle    { return c.Handle }
func (c PlayAnim) Clone() Command    { return c }

// DestroyView releases the entity's bound node.
type DestroyView struct {
	Handle Handle `json:"handle"`
}

func (c DestroyView) Kind() CommandKind { return KindDestroyView }
func (c DestroyView) Target() Handle    { return c.Handle }
func (c DestroyView) Clone() Command    { return c }
