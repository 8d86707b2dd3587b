// Package pool manages bounded, keyed pools of presentation nodes fed by
// asynchronously loaded prefab templates.
package pool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/simstage/bridge/internal/scene"
)

// Stat describes one key's pool occupancy.
type Stat struct {
	Size    int
	MaxSize int
}

// ViewPool caches instantiated nodes per prefab key so expensive spawns are
// amortized. Ownership is linear: a node obtained from Get is borrowed and
// must come back through Release, which either re-pools or destroys it. Each
// node is tagged with its originating key internally, so callers never
// re-specify the key on release.
type ViewPool struct {
	mu         sync.Mutex
	loader     scene.Loader
	log        *slog.Logger
	defaultMax int

	// epoch invalidates in-flight loads on Clear; a completion carrying a
	// stale epoch releases its template and is discarded.
	epoch uint64

	templates map[string]scene.Template
	loading   map[string]*scene.Pending
	free      map[string][]scene.Node
	maxSizes  map[string]int

	// nodeKeys tracks every node the pool has handed out or holds; pooled
	// marks the ones sitting in a free list. A node is borrowed iff tracked
	// and not pooled.
	nodeKeys map[scene.Node]string
	pooled   map[scene.Node]bool
}

// New creates a pool with the given per-key capacity default.
func New(loader scene.Loader, maxSize int, log *slog.Logger) (*ViewPool, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("maxSize must be positive, got %d", maxSize)
	}
	if log == nil {
		log = slog.Default()
	}
	return &ViewPool{
		loader:     loader,
		log:        log,
		defaultMax: maxSize,
		templates:  make(map[string]scene.Template),
		loading:    make(map[string]*scene.Pending),
		free:       make(map[string][]scene.Node),
		maxSizes:   make(map[string]int),
		nodeKeys:   make(map[scene.Node]string),
		pooled:     make(map[scene.Node]bool),
	}, nil
}

// PreloadPrefab starts an asynchronous template load for key. Repeat calls
// while a load is in flight return the same pending; calls after a successful
// load resolve immediately. Load failures are logged and leave the pool
// unchanged, so a later preload can retry.
func (p *ViewPool) PreloadPrefab(key, path string) *scene.Pending {
	p.mu.Lock()
	if tmpl, ok := p.templates[key]; ok {
		p.mu.Unlock()
		return scene.Resolved(tmpl, nil)
	}
	if pending, ok := p.loading[key]; ok {
		p.mu.Unlock()
		return pending
	}

	epoch := p.epoch
	pending := p.loader.Load(path)
	p.loading[key] = pending
	p.mu.Unlock()

	pending.OnComplete(func(tmpl scene.Template, err error) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.epoch != epoch {
			// Pool was cleared while the load was in flight.
			if tmpl != nil {
				tmpl.Release()
			}
			return
		}

		delete(p.loading, key)

		if err != nil {
			p.log.Warn("prefab load failed", "key", key, "path", path, "error", err)
			return
		}
		p.templates[key] = tmpl
	})

	return pending
}

// Get returns an activated node for key, reusing a pooled instance when one
// is free. Reports false without blocking when no template is loaded yet.
func (p *ViewPool) Get(key string) (scene.Node, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tmpl, ok := p.templates[key]
	if !ok {
		return nil, false
	}

	var node scene.Node
	for free := p.free[key]; len(free) > 0; free = p.free[key] {
		candidate := free[len(free)-1]
		p.free[key] = free[:len(free)-1]
		delete(p.pooled, candidate)
		if !candidate.Valid() {
			// Destroyed externally while pooled; drop it and keep looking.
			delete(p.nodeKeys, candidate)
			continue
		}
		node = candidate
		break
	}

	if node == nil {
		node = tmpl.Instantiate()
		if node == nil {
			return nil, false
		}
		p.nodeKeys[node] = key
	}

	node.SetActive(true)
	return node, true
}

// Release returns a borrowed node to its key's pool, destroying it when the
// pool is at capacity. Unknown nodes, already-pooled nodes and nodes destroyed
// externally are a detectable no-op, never undefined behavior.
func (p *ViewPool) Release(node scene.Node) {
	if node == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	key, ok := p.nodeKeys[node]
	if !ok || p.pooled[node] {
		return
	}

	if !node.Valid() {
		delete(p.nodeKeys, node)
		return
	}

	node.SetActive(false)

	if len(p.free[key]) >= p.maxFor(key) {
		node.Destroy()
		delete(p.nodeKeys, node)
		return
	}

	p.free[key] = append(p.free[key], node)
	p.pooled[node] = true
}

// SetMaxSize overrides the capacity for one key and immediately trims excess
// free nodes. Values below 1 reset the key to the pool default.
func (p *ViewPool) SetMaxSize(key string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n < 1 {
		delete(p.maxSizes, key)
	} else {
		p.maxSizes[key] = n
	}

	limit := p.maxFor(key)
	free := p.free[key]
	for len(free) > limit {
		node := free[len(free)-1]
		free = free[:len(free)-1]
		delete(p.pooled, node)
		delete(p.nodeKeys, node)
		node.Destroy()
	}
	p.free[key] = free
}

// Stats reports per-key pooled counts and capacities.
func (p *ViewPool) Stats() map[string]Stat {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[string]Stat, len(p.templates))
	for key := range p.templates {
		stats[key] = Stat{Size: len(p.free[key]), MaxSize: p.maxFor(key)}
	}
	for key := range p.free {
		if _, ok := stats[key]; !ok {
			stats[key] = Stat{Size: len(p.free[key]), MaxSize: p.maxFor(key)}
		}
	}
	return stats
}

// Clear destroys all pooled nodes, releases templates and invalidates
// in-flight loads. Borrowed nodes stay with their borrowers; a later Release
// of one is a no-op.
func (p *ViewPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.epoch++

	for _, free := range p.free {
		for _, node := range free {
			delete(p.pooled, node)
			delete(p.nodeKeys, node)
			if node.Valid() {
				node.Destroy()
			}
		}
	}
	p.free = make(map[string][]scene.Node)

	for _, tmpl := range p.templates {
		tmpl.Release()
	}
	p.templates = make(map[string]scene.Template)
	p.loading = make(map[string]*scene.Pending)
	p.nodeKeys = make(map[scene.Node]string)
	p.pooled = make(map[scene.Node]bool)
}

func (p *ViewPool) maxFor(key string) int {
	if n, ok := p.maxSizes[key]; ok {
		return n
	}
	return p.defaultMax
}
