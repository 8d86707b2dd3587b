// Package recorder archives the command and event streams that cross the
// simulation/presentation boundary so a session can be replayed later.
package recorder

import (
	"time"

	"github.com/google/uuid"

	"github.com/simstage/bridge/pkg/core"
)

// Session identifies one recorded run of the bridge.
type Session struct {
	ID         uuid.UUID
	Name       string
	StartedAt  time.Time
	FixedDelta float64
}

// NewSession creates a session with a fresh ID.
func NewSession(name string, fixedDelta float64) Session {
	return Session{
		ID:         uuid.New(),
		Name:       name,
		StartedAt:  time.Now(),
		FixedDelta: fixedDelta,
	}
}

// CommandBatch is one fixed tick's worth of drained commands.
type CommandBatch struct {
	Tick     uint64
	Commands []core.Command
}

// EventBatch is one fixed tick's worth of delivered events.
type EventBatch struct {
	Tick   uint64
	Events []core.Event
}

// Backend is the interface all archive implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s Session) error
	EndSession() error

	// Stream recording
	RecordCommands(batch CommandBatch) error
	RecordEvents(batch EventBatch) error
}

// Exportable is an optional interface for backends that produce a replay
// file on EndSession.
type Exportable interface {
	ExportedFilePath() string
}
