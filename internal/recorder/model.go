package recorder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/simstage/bridge/pkg/core"
)

// DatabaseModels lists the structs that represent tables in the archive schema.
var DatabaseModels = []interface{}{
	&SessionRow{},
	&CommandRow{},
	&EventRow{},
}

// SessionRow is one recorded bridge run.
type SessionRow struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name       string    `json:"name" gorm:"size:128"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	FixedDelta float64   `json:"fixedDelta"`
	EndTick    uint64    `json:"endTick"`
}

func (*SessionRow) TableName() string {
	return "sessions"
}

// CommandRow is one presentation command drained from the buffer.
type CommandRow struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	SessionID uuid.UUID      `json:"sessionId" gorm:"type:uuid;index:idx_command_session"`
	Tick      uint64         `json:"tick" gorm:"index:idx_command_session"`
	Kind      string         `json:"kind" gorm:"size:32"`
	HandleID  uint32         `json:"handleId"`
	HandleGen uint32         `json:"handleGen"`
	Payload   datatypes.JSON `json:"payload"`
}

func (*CommandRow) TableName() string {
	return "commands"
}

// EventRow is one simulation event delivered through the bus.
type EventRow struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	SessionID uuid.UUID      `json:"sessionId" gorm:"type:uuid;index:idx_event_session"`
	Tick      uint64         `json:"tick" gorm:"index:idx_event_session"`
	Type      string         `json:"type" gorm:"size:32"`
	Payload   datatypes.JSON `json:"payload"`
}

func (*EventRow) TableName() string {
	return "events"
}

// CommandToRow flattens a command into an archive row. The target handle is
// stored in columns so replay tooling can filter without parsing payloads.
func CommandToRow(sessionID uuid.UUID, tick uint64, cmd core.Command) (CommandRow, error) {
	row := CommandRow{
		SessionID: sessionID,
		Tick:      tick,
		Kind:      string(cmd.Kind()),
		HandleID:  cmd.Target().ID,
		HandleGen: cmd.Target().Generation,
	}

	var payload any
	switch c := cmd.(type) {
	case core.SpawnView:
		payload = map[string]any{"prefabKey": c.PrefabKey, "position": c.Position}
	case core.SetPosition:
		payload = map[string]any{"position": c.Position}
	case core.PlayAnim:
		payload = map[string]any{"name": c.Name}
	case core.DestroyView:
		payload = map[string]any{}
	default:
		return CommandRow{}, fmt.Errorf("unknown command kind: %s", cmd.Kind())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return CommandRow{}, fmt.Errorf("failed to encode command payload: %w", err)
	}
	row.Payload = datatypes.JSON(raw)
	return row, nil
}

// EventToRow flattens an event into an archive row.
func EventToRow(sessionID uuid.UUID, tick uint64, evt core.Event) (EventRow, error) {
	row := EventRow{
		SessionID: sessionID,
		Tick:      tick,
		Type:      string(evt.Type()),
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		return EventRow{}, fmt.Errorf("failed to encode event payload: %w", err)
	}
	row.Payload = datatypes.JSON(raw)
	return row, nil
}
