package systems

import (
	"sort"
)

// SortedList keeps registered system IDs in ascending-priority execution
// order, recomputed lazily. Sorting only happens on a dirty list; steady-state
// updates are a linear resolve-and-run pass.
type SortedList struct {
	ids    []ID
	sorted []resolved
	dirty  bool
}

type resolved struct {
	id       ID
	system   System
	priority int
}

// NewSortedList creates an empty list.
func NewSortedList() *SortedList {
	return &SortedList{}
}

// Add registers a system ID. Re-adding an existing ID is a no-op; otherwise
// the list is marked dirty.
func (l *SortedList) Add(id ID) {
	for _, existing := range l.ids {
		if existing == id {
			return
		}
	}
	l.ids = append(l.ids, id)
	l.dirty = true
}

// Remove unregisters a system ID. Absent IDs are a no-op.
func (l *SortedList) Remove(id ID) {
	for i, existing := range l.ids {
		if existing == id {
			l.ids = append(l.ids[:i:i], l.ids[i+1:]...)
			l.dirty = true
			return
		}
	}
}

// MarkDirty forces a re-sort on the next Update, picking up externally
// mutated priorities.
func (l *SortedList) MarkDirty() {
	l.dirty = true
}

// Len returns the number of registered IDs.
func (l *SortedList) Len() int {
	return len(l.ids)
}

// Contains reports whether the ID is registered.
func (l *SortedList) Contains(id ID) bool {
	for _, existing := range l.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Update executes every resolvable, enabled system in ascending-priority
// order, ties broken by insertion order. IDs not registered in the world are
// skipped, and the list stays dirty until every ID resolves so a system
// registered after Add still joins the order without a MarkDirty call. When
// the list is dirty the execution order is recomputed first, reading each
// system's priority fresh.
func (l *SortedList) Update(w World, dt float64) {
	if l.dirty {
		l.dirty = !l.resort(w)
	}

	for _, entry := range l.sorted {
		sys, ok := w.System(entry.id)
		if !ok || !sys.Enabled() {
			continue
		}
		sys.Update(w, dt)
	}
}

// resort rebuilds the cached execution order and reports whether every
// registered ID resolved against the world.
func (l *SortedList) resort(w World) bool {
	complete := true
	l.sorted = l.sorted[:0]
	for _, id := range l.ids {
		sys, ok := w.System(id)
		if !ok {
			complete = false
			continue
		}
		l.sorted = append(l.sorted, resolved{
			id:       id,
			system:   sys,
			priority: sys.Priority(),
		})
	}
	sort.SliceStable(l.sorted, func(a, b int) bool {
		return l.sorted[a].priority < l.sorted[b].priority
	})
	return complete
}
