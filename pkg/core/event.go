package core

// EventType is the routing key for gameplay events.
type EventType string

// EventTypeAny subscribes a handler to every event type.
const EventTypeAny EventType = "*"

const (
	EventTypeAnimation EventType = "animation"
	EventTypeCollision EventType = "collision"
	EventTypeUI        EventType = "ui"
)

// Event is a gameplay-observable occurrence produced by simulation systems
// and delivered synchronously during an event-bus flush. Events are not
// replayed; a delivered event is discarded.
type Event interface {
	Type() EventType
}

// AnimationEvent reports an animation state change on an entity.
type AnimationEvent struct {
	Handle   Handle `json:"handle"`
	Name     string `json:"name"`
	Finished bool   `json:"finished"`
}

func (AnimationEvent) Type() EventType { return EventTypeAnimation }

// CollisionEvent reports contact between two entities.
type CollisionEvent struct {
	A     Handle `json:"a"`
	B     Handle `json:"b"`
	Point Vec3   `json:"point"`
}

func (CollisionEvent) Type() EventType { return EventTypeCollision }

// UIEvent carries a message destined for interface adapters.
type UIEvent struct {
	Name    string `json:"name"`
	Payload string `json:"payload,omitempty"`
}

func (UIEvent) Type() EventType { return EventTypeUI }
