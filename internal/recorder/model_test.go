package recorder

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/simstage/bridge/pkg/core"
)

func TestCommandToRow(t *testing.T) {
	sessionID := uuid.New()
	h := core.Handle{ID: 7, Generation: 2}

	tests := []struct {
		name string
		cmd  core.Command
		kind string
	}{
		{"spawn", core.SpawnView{Handle: h, PrefabKey: "units/tank", Position: core.Vec3{X: 1, Y: 2, Z: 3}}, "spawn_view"},
		{"move", core.SetPosition{Handle: h, Position: core.Vec3{X: 4}}, "set_position"},
		{"anim", core.PlayAnim{Handle: h, Name: "reload"}, "play_anim"},
		{"destroy", core.DestroyView{Handle: h}, "destroy_view"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := CommandToRow(sessionID, 42, tt.cmd)
			if err != nil {
				t.Fatalf("CommandToRow() error = %v", err)
			}
			if row.SessionID != sessionID {
				t.Errorf("SessionID = %v, want %v", row.SessionID, sessionID)
			}
			if row.Tick != 42 {
				t.Errorf("Tick = %d, want 42", row.Tick)
			}
			if row.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", row.Kind, tt.kind)
			}
			if row.HandleID != 7 || row.HandleGen != 2 {
				t.Errorf("handle columns = (%d, %d), want (7, 2)", row.HandleID, row.HandleGen)
			}
			if !json.Valid(row.Payload) {
				t.Errorf("payload is not valid JSON: %s", row.Payload)
			}
		})
	}
}

func TestCommandToRowSpawnPayload(t *testing.T) {
	cmd := core.SpawnView{
		Handle:    core.Handle{ID: 1, Generation: 1},
		PrefabKey: "fx/smoke",
		Position:  core.Vec3{X: 10, Y: 20, Z: 30},
	}

	row, err := CommandToRow(uuid.New(), 1, cmd)
	if err != nil {
		t.Fatalf("CommandToRow() error = %v", err)
	}

	var payload struct {
		PrefabKey string    `json:"prefabKey"`
		Position  core.Vec3 `json:"position"`
	}
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.PrefabKey != "fx/smoke" {
		t.Errorf("prefabKey = %q, want %q", payload.PrefabKey, "fx/smoke")
	}
	if payload.Position != cmd.Position {
		t.Errorf("position = %v, want %v", payload.Position, cmd.Position)
	}
}

func TestEventToRow(t *testing.T) {
	sessionID := uuid.New()
	evt := core.CollisionEvent{
		A:     core.Handle{ID: 1, Generation: 1},
		B:     core.Handle{ID: 2, Generation: 1},
		Point: core.Vec3{X: 5, Y: 0, Z: 5},
	}

	row, err := EventToRow(sessionID, 9, evt)
	if err != nil {
		t.Fatalf("EventToRow() error = %v", err)
	}
	if row.Type != "collision" {
		t.Errorf("Type = %q, want %q", row.Type, "collision")
	}

	var decoded core.CollisionEvent
	if err := json.Unmarshal(row.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded != evt {
		t.Errorf("decoded = %+v, want %+v", decoded, evt)
	}
}

type bogusCommand struct{}

func (bogusCommand) Kind() core.CommandKind { return "bogus" }
func (bogusCommand) Target() core.Handle    { return core.Handle{} }
func (bogusCommand) Clone() core.Command    { return bogusCommand{} }

func TestCommandToRowUnknownKind(t *testing.T) {
	_, err := CommandToRow(uuid.New(), 1, bogusCommand{})
	if err == nil {
		t.Fatal("expected error for unknown command kind")
	}
}
