package systems

import (
	"testing"

	"github.com/simstage/bridge/pkg/core"
)

// fakeWorld resolves systems from a plain map and treats every handle as live.
type fakeWorld struct {
	systems map[ID]System
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{systems: make(map[ID]System)}
}

func (w *fakeWorld) Alive(core.Handle) bool { return true }

func (w *fakeWorld) System(id ID) (System, bool) {
	s, ok := w.systems[id]
	return s, ok
}

type fakeSystem struct {
	priority int
	enabled  bool
	onUpdate func(dt float64)
}

func (s *fakeSystem) Priority() int              { return s.priority }
func (s *fakeSystem) Enabled() bool              { return s.enabled }
func (s *fakeSystem) Update(_ World, dt float64) { s.onUpdate(dt) }

func TestSortedList_AddIdempotent(t *testing.T) {
	l := NewSortedList()
	l.Add("movement")
	l.Add("movement")

	if l.Len() != 1 {
		t.Errorf("expected 1 registered system, got %d", l.Len())
	}
	if !l.Contains("movement") {
		t.Error("expected movement to be registered")
	}
}

func TestSortedList_RemoveAbsent(t *testing.T) {
	l := NewSortedList()
	l.Remove("ghost") // must not panic

	l.Add("movement")
	l.Remove("movement")
	if l.Len() != 0 {
		t.Errorf("expected empty list, got %d", l.Len())
	}
}

func TestSortedList_AscendingPriorityOrder(t *testing.T) {
	w := newFakeWorld()
	var order []string
	record := func(name string) *fakeSystem {
		return &fakeSystem{enabled: true, onUpdate: func(float64) { order = append(order, name) }}
	}

	late := record("late")
	late.priority = PriorityCleanup
	early := record("early")
	early.priority = PriorityInput
	mid := record("mid")
	mid.priority = PriorityCombat

	w.systems["late"] = late
	w.systems["early"] = early
	w.systems["mid"] = mid

	l := NewSortedList()
	l.Add("late")
	l.Add("early")
	l.Add("mid")
	l.Update(w, 1.0/60)

	want := []string{"early", "mid", "late"}
	if len(order) != len(want) {
		t.Fatalf("expected %d updates, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("update %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestSortedList_StableTieBreak(t *testing.T) {
	w := newFakeWorld()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		w.systems[ID(name)] = &fakeSystem{
			priority: PriorityGameplay,
			enabled:  true,
			onUpdate: func(float64) { order = append(order, name) },
		}
	}

	l := NewSortedList()
	l.Add("first")
	l.Add("second")
	l.Add("third")
	l.Update(w, 1.0/60)

	want := []string{"first", "second", "third"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected insertion-order tie break %v, got %v", want, order)
		}
	}
}

func TestSortedList_PriorityChangeNeedsMarkDirty(t *testing.T) {
	w := newFakeWorld()
	var order []string
	a := &fakeSystem{priority: 10, enabled: true, onUpdate: func(float64) { order = append(order, "a") }}
	z := &fakeSystem{priority: 20, enabled: true, onUpdate: func(float64) { order = append(order, "z") }}
	w.systems["a"] = a
	w.systems["z"] = z

	l := NewSortedList()
	l.Add("a")
	l.Add("z")
	l.Update(w, 1.0/60)

	// Mutate priorities; without MarkDirty the cached order must hold.
	a.priority = 30
	order = order[:0]
	l.Update(w, 1.0/60)
	if order[0] != "a" {
		t.Fatalf("expected stale order before MarkDirty, got %v", order)
	}

	l.MarkDirty()
	order = order[:0]
	l.Update(w, 1.0/60)
	if order[0] != "z" || order[1] != "a" {
		t.Errorf("expected re-sorted order after MarkDirty, got %v", order)
	}
}

func TestSortedList_SkipsDisabledAndUnresolvable(t *testing.T) {
	w := newFakeWorld()
	ran := 0
	w.systems["on"] = &fakeSystem{enabled: true, onUpdate: func(float64) { ran++ }}
	w.systems["off"] = &fakeSystem{enabled: false, onUpdate: func(float64) { t.Error("disabled system ran") }}

	l := NewSortedList()
	l.Add("on")
	l.Add("off")
	l.Add("unregistered") // not in the world at all
	l.Update(w, 1.0/60)

	if ran != 1 {
		t.Errorf("expected exactly the enabled system to run, got %d runs", ran)
	}
}

func TestSortedList_LateRegistrationJoinsOrder(t *testing.T) {
	w := newFakeWorld()
	ran := 0

	l := NewSortedList()
	l.Add("straggler") // not in the world yet
	l.Update(w, 1.0/60)

	// Registering after the first sort must not require MarkDirty.
	w.systems["straggler"] = &fakeSystem{enabled: true, onUpdate: func(float64) { ran++ }}
	l.Update(w, 1.0/60)

	if ran != 1 {
		t.Errorf("expected late-registered system to run, got %d runs", ran)
	}
}

func TestSortedList_DisableWithoutResort(t *testing.T) {
	w := newFakeWorld()
	ran := 0
	sys := &fakeSystem{enabled: true, onUpdate: func(float64) { ran++ }}
	w.systems["toggled"] = sys

	l := NewSortedList()
	l.Add("toggled")
	l.Update(w, 1.0/60)

	// The enabled flag is read per update, not cached at sort time.
	sys.enabled = false
	l.Update(w, 1.0/60)

	if ran != 1 {
		t.Errorf("expected 1 run, got %d", ran)
	}
}
