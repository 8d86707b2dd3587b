// Package binder maintains the node-to-handle mapping presentation code uses
// to recover which simulation entity a scene node represents.
package binder

import (
	"sync"

	"github.com/simstage/bridge/internal/scene"
	"github.com/simstage/bridge/pkg/core"
)

// NodeBinder maps live presentation nodes to simulation handles. Multiple
// nodes may bind to the same handle (a root visual plus child anchors);
// lookups are per node. Mutex-guarded because node-originated engine
// callbacks are among the callers.
type NodeBinder struct {
	mu       sync.Mutex
	bindings map[scene.Node]core.Handle
}

// New creates an empty binder.
func New() *NodeBinder {
	return &NodeBinder{
		bindings: make(map[scene.Node]core.Handle),
	}
}

// Bind associates a node with a handle, replacing any previous binding for
// that node. Nil nodes are ignored.
func (b *NodeBinder) Bind(node scene.Node, h core.Handle) {
	if node == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings[node] = h
}

// Handle returns the handle bound to the node, reporting false when the node
// is unbound.
func (b *NodeBinder) Handle(node scene.Node) (core.Handle, bool) {
	if node == nil {
		return core.Handle{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.bindings[node]
	return h, ok
}

// Unbind removes the node's binding. Unbound nodes are a no-op.
func (b *NodeBinder) Unbind(node scene.Node) {
	if node == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bindings, node)
}

// NodesFor returns every node currently bound to the handle. Order is
// unspecified.
func (b *NodeBinder) NodesFor(h core.Handle) []scene.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	var nodes []scene.Node
	for node, bound := range b.bindings {
		if bound == h {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Clear removes all bindings.
func (b *NodeBinder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings = make(map[scene.Node]core.Handle)
}

// Len returns the number of bound nodes.
func (b *NodeBinder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bindings)
}
