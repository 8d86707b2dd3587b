// Package scenetest provides deterministic in-memory implementations of the
// scene collaborator interfaces for tests and the demo host.
package scenetest

import (
	"fmt"
	"sync"

	"github.com/simstage/bridge/internal/scene"
	"github.com/simstage/bridge/pkg/core"
)

// FakeNode is an in-memory scene node. Destroy marks it invalid.
type FakeNode struct {
	mu         sync.Mutex
	active     bool
	destroyed  bool
	position   core.Vec3
	components map[string]any
}

// NewFakeNode creates a valid, inactive node.
func NewFakeNode() *FakeNode {
	return &FakeNode{components: make(map[string]any)}
}

func (n *FakeNode) SetActive(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = v
}

func (n *FakeNode) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

func (n *FakeNode) Valid() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.destroyed
}

func (n *FakeNode) SetPosition(p core.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = p
}

func (n *FakeNode) Position() core.Vec3 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.position
}

func (n *FakeNode) Component(name string) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.components[name]
	return c, ok
}

// AttachComponent registers a named component on the node.
func (n *FakeNode) AttachComponent(name string, c any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.components[name] = c
}

func (n *FakeNode) Destroy() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.destroyed = true
	n.active = false
}

// FakeParticles implements scene.ParticleDriver and records Stop calls.
type FakeParticles struct {
	mu    sync.Mutex
	stops int
}

func (p *FakeParticles) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

// Stops returns how many times the driver was halted.
func (p *FakeParticles) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// FakeTemplate stamps out fake nodes and counts instantiations and releases.
type FakeTemplate struct {
	mu           sync.Mutex
	path         string
	instantiated int
	released     bool
	// OnInstantiate, when set, customizes produced nodes.
	OnInstantiate func(*FakeNode)
}

func (t *FakeTemplate) Instantiate() scene.Node {
	t.mu.Lock()
	t.instantiated++
	fn := t.OnInstantiate
	t.mu.Unlock()

	n := NewFakeNode()
	if fn != nil {
		fn(n)
	}
	return n
}

func (t *FakeTemplate) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released = true
}

// Instantiations returns how many nodes the template has produced.
func (t *FakeTemplate) Instantiations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.instantiated
}

// Released reports whether Release was called.
func (t *FakeTemplate) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// FakeLoader resolves loads either synchronously or under manual control.
type FakeLoader struct {
	mu sync.Mutex
	// FailPaths resolve with an error instead of a template.
	FailPaths map[string]bool
	// Manual defers completion until ResolveAll or Resolve is called.
	Manual bool

	loads     int
	pending   map[string]*scene.Pending
	templates map[string]*FakeTemplate
}

// NewFakeLoader creates a loader that completes loads synchronously.
func NewFakeLoader() *FakeLoader {
	return &FakeLoader{
		FailPaths: make(map[string]bool),
		pending:   make(map[string]*scene.Pending),
		templates: make(map[string]*FakeTemplate),
	}
}

// Load satisfies scene.Loader.
func (l *FakeLoader) Load(path string) *scene.Pending {
	l.mu.Lock()
	l.loads++
	fail := l.FailPaths[path]
	manual := l.Manual
	l.mu.Unlock()

	if !manual {
		if fail {
			return scene.Resolved(nil, fmt.Errorf("asset not found: %s", path))
		}
		return scene.Resolved(l.templateFor(path), nil)
	}

	p := scene.NewPending()
	l.mu.Lock()
	l.pending[path] = p
	l.mu.Unlock()
	return p
}

// Resolve completes a manual load for the given path.
func (l *FakeLoader) Resolve(path string) {
	l.mu.Lock()
	p := l.pending[path]
	delete(l.pending, path)
	fail := l.FailPaths[path]
	l.mu.Unlock()

	if p == nil {
		return
	}
	if fail {
		p.Complete(nil, fmt.Errorf("asset not found: %s", path))
		return
	}
	p.Complete(l.templateFor(path), nil)
}

// ResolveAll completes every outstanding manual load.
func (l *FakeLoader) ResolveAll() {
	l.mu.Lock()
	paths := make([]string, 0, len(l.pending))
	for path := range l.pending {
		paths = append(paths, path)
	}
	l.mu.Unlock()

	for _, path := range paths {
		l.Resolve(path)
	}
}

// Loads returns the number of Load calls observed.
func (l *FakeLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Template returns the template produced for a path, if any load completed.
func (l *FakeLoader) Template(path string) *FakeTemplate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.templates[path]
}

func (l *FakeLoader) templateFor(path string) *FakeTemplate {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.templates[path]; ok {
		return t
	}
	t := &FakeTemplate{path: path}
	l.templates[path] = t
	return t
}
