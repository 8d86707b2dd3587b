package recorder

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/simstage/bridge/pkg/core"
)

// captureBackend records every call for assertions.
type captureBackend struct {
	mu       sync.Mutex
	inited   bool
	closed   bool
	session  Session
	ended    bool
	commands []CommandBatch
	events   []EventBatch
}

func (c *captureBackend) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inited = true
	return nil
}

func (c *captureBackend) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureBackend) StartSession(s Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	return nil
}

func (c *captureBackend) EndSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended = true
	return nil
}

func (c *captureBackend) RecordCommands(batch CommandBatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, batch)
	return nil
}

func (c *captureBackend) RecordEvents(batch EventBatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, batch)
	return nil
}

func (c *captureBackend) snapshot() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.commands), len(c.events)
}

func TestServiceLifecycle(t *testing.T) {
	backend := &captureBackend{}
	svc := NewService(backend, 10*time.Millisecond, 64, zerolog.Nop())

	session := NewSession("lifecycle", 1.0/60)
	if err := svc.Start(session); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Start(session); err == nil {
		t.Fatal("expected error on double Start")
	}

	h := core.Handle{ID: 1, Generation: 1}
	svc.TapCommands([]core.Command{core.SetPosition{Handle: h}}, 1)
	svc.TapEvents([]core.Event{core.UIEvent{Name: "hud"}}, 1)

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if !backend.inited || !backend.ended || !backend.closed {
		t.Errorf("lifecycle incomplete: inited=%v ended=%v closed=%v",
			backend.inited, backend.ended, backend.closed)
	}
	if backend.session.ID != session.ID {
		t.Errorf("session ID = %v, want %v", backend.session.ID, session.ID)
	}
	if len(backend.commands) != 1 || len(backend.events) != 1 {
		t.Errorf("batches = (%d, %d), want (1, 1)", len(backend.commands), len(backend.events))
	}
}

func TestServiceFlushesOnInterval(t *testing.T) {
	backend := &captureBackend{}
	svc := NewService(backend, 5*time.Millisecond, 64, zerolog.Nop())

	if err := svc.Start(NewSession("interval", 1.0/60)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Stop()

	h := core.Handle{ID: 2, Generation: 1}
	svc.TapCommands([]core.Command{core.DestroyView{Handle: h}}, 7)

	deadline := time.Now().Add(time.Second)
	for {
		if n, _ := backend.snapshot(); n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("flush goroutine never delivered the batch")
		}
		time.Sleep(time.Millisecond)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.commands[0].Tick != 7 {
		t.Errorf("Tick = %d, want 7", backend.commands[0].Tick)
	}
}

func TestServiceStopDrainsBacklog(t *testing.T) {
	backend := &captureBackend{}
	// batchSize 1 and an idle interval so everything is still queued at Stop.
	svc := NewService(backend, time.Hour, 1, zerolog.Nop())

	if err := svc.Start(NewSession("backlog", 1.0/60)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	h := core.Handle{ID: 4, Generation: 1}
	for tick := uint64(1); tick <= 3; tick++ {
		svc.TapCommands([]core.Command{core.SetPosition{Handle: h}}, tick)
		svc.TapEvents([]core.Event{core.UIEvent{Name: "hud"}}, tick)
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	cmds, evts := backend.snapshot()
	if cmds != 3 || evts != 3 {
		t.Errorf("batches after Stop = (%d, %d), want (3, 3)", cmds, evts)
	}
	if depth := svc.QueueDepth(); depth != 0 {
		t.Errorf("QueueDepth() after Stop = %d, want 0", depth)
	}
}

func TestServiceSkipsEmptyBatches(t *testing.T) {
	backend := &captureBackend{}
	svc := NewService(backend, time.Hour, 64, zerolog.Nop())

	svc.TapCommands(nil, 1)
	svc.TapEvents([]core.Event{}, 1)

	if depth := svc.QueueDepth(); depth != 0 {
		t.Errorf("QueueDepth() = %d, want 0", depth)
	}
}

func TestServiceStopWithoutStart(t *testing.T) {
	svc := NewService(&captureBackend{}, time.Second, 64, zerolog.Nop())
	if err := svc.Stop(); err != nil {
		t.Errorf("Stop() without Start error = %v", err)
	}
}

func TestServiceQueueDepth(t *testing.T) {
	svc := NewService(&captureBackend{}, time.Hour, 64, zerolog.Nop())

	h := core.Handle{ID: 3, Generation: 1}
	svc.TapCommands([]core.Command{core.SetPosition{Handle: h}}, 1)
	svc.TapCommands([]core.Command{core.SetPosition{Handle: h}}, 2)
	svc.TapEvents([]core.Event{core.UIEvent{Name: "x"}}, 2)

	if depth := svc.QueueDepth(); depth != 3 {
		t.Errorf("QueueDepth() = %d, want 3", depth)
	}
}
