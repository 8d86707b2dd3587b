// Package fx drives time-bounded particle and audio effect instances on top
// of keyed node pools.
package fx

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/simstage/bridge/internal/pool"
	"github.com/simstage/bridge/internal/scene"
	"github.com/simstage/bridge/pkg/core"
)

type activeEffect struct {
	node      scene.Node
	key       string
	remaining float64
	target    core.Handle
}

// Driver spawns configured effects from pooled templates and recycles them
// when their lifetime expires, their node dies, or they are stopped
// explicitly. All three paths converge on the same stop routine so a node
// always ends up back in exactly one pool bucket or destroyed.
type Driver struct {
	mu      sync.Mutex
	pool    *pool.ViewPool
	configs map[string]Config
	log     *slog.Logger
	actives []*activeEffect
	epoch   uint64
}

// NewDriver creates a driver over its own keyed node pool.
func NewDriver(loader scene.Loader, configs map[string]Config, maxPool int, log *slog.Logger) (*Driver, error) {
	if log == nil {
		log = slog.Default()
	}
	p, err := pool.New(loader, maxPool, log)
	if err != nil {
		return nil, fmt.Errorf("creating fx pool: %w", err)
	}
	if configs == nil {
		configs = make(map[string]Config)
	}
	return &Driver{
		pool:    p,
		configs: configs,
		log:     log,
	}, nil
}

// RegisterEffect adds or replaces an effect configuration at runtime.
func (d *Driver) RegisterEffect(key string, cfg Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configs[key] = cfg
}

// PlayFx starts the keyed effect at the given position. An unknown key is
// logged and ignored. When the effect's template is already cached the live
// node is returned; otherwise the load is kicked off, the effect goes live on
// the completion turn, and nil is returned now. Never blocks a tick.
func (d *Driver) PlayFx(key string, pos core.Vec3, target ...core.Handle) scene.Node {
	cfg, ok := d.lookup(key)
	if !ok {
		d.log.Warn("no effect config registered", "key", key)
		return nil
	}

	var tgt core.Handle
	if len(target) > 0 {
		tgt = target[0]
	}

	if node, ok := d.pool.Get(key); ok {
		d.activate(node, key, cfg, pos, tgt)
		return node
	}

	d.mu.Lock()
	epoch := d.epoch
	d.mu.Unlock()

	pending := d.pool.PreloadPrefab(key, cfg.Path)
	pending.OnComplete(func(_ scene.Template, err error) {
		if err != nil {
			d.log.Warn("effect load failed", "key", key, "path", cfg.Path, "error", err)
			return
		}

		d.mu.Lock()
		stale := d.epoch != epoch
		d.mu.Unlock()
		if stale {
			// Driver was cleared while the load was in flight.
			return
		}

		node, ok := d.pool.Get(key)
		if !ok {
			return
		}
		d.activate(node, key, cfg, pos, tgt)
	})

	return nil
}

func (d *Driver) activate(node scene.Node, key string, cfg Config, pos core.Vec3, target core.Handle) {
	node.SetPosition(pos)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.actives = append(d.actives, &activeEffect{
		node:      node,
		key:       key,
		remaining: cfg.Duration,
		target:    target,
	})
}

// StopFx halts and recycles an active effect. Nodes that are not currently
// active are a no-op.
func (d *Driver) StopFx(node scene.Node) {
	if node == nil {
		return
	}

	d.mu.Lock()
	idx := -1
	for i, fx := range d.actives {
		if fx.node == node {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.mu.Unlock()
		return
	}
	d.actives = append(d.actives[:idx:idx], d.actives[idx+1:]...)
	d.mu.Unlock()

	d.stop(node)
}

// stop is the single recycle path shared by StopFx, expiry and invalidation.
// The caller must already have removed the effect from the active list.
func (d *Driver) stop(node scene.Node) {
	if node.Valid() {
		if c, ok := node.Component(scene.ParticleComponent); ok {
			if driver, ok := c.(scene.ParticleDriver); ok {
				driver.Stop()
			}
		}
	}
	d.pool.Release(node)
}

// Update advances every active effect by dt seconds, auto-stopping effects
// whose lifetime expired or whose node was destroyed externally. Perpetual
// effects only expire through StopFx.
func (d *Driver) Update(dt float64) {
	d.mu.Lock()
	var expired []scene.Node
	kept := d.actives[:0]
	for _, fx := range d.actives {
		if !fx.node.Valid() {
			expired = append(expired, fx.node)
			continue
		}
		fx.remaining -= dt
		if fx.remaining <= 0 {
			expired = append(expired, fx.node)
			continue
		}
		kept = append(kept, fx)
	}
	d.actives = kept
	d.mu.Unlock()

	for _, node := range expired {
		d.stop(node)
	}
}

// ActiveCount returns the number of currently playing effects.
func (d *Driver) ActiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actives)
}

// TargetOf returns the handle an active effect tracks, if any.
func (d *Driver) TargetOf(node scene.Node) (core.Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, fx := range d.actives {
		if fx.node == node {
			return fx.target, true
		}
	}
	return core.Handle{}, false
}

// PoolStats reports the underlying pool occupancy per effect key.
func (d *Driver) PoolStats() map[string]pool.Stat {
	return d.pool.Stats()
}

// Clear stops every active effect and empties the pools. In-flight loads are
// invalidated and their late completions discarded.
func (d *Driver) Clear() {
	d.mu.Lock()
	d.epoch++
	actives := d.actives
	d.actives = nil
	d.mu.Unlock()

	for _, fx := range actives {
		d.stop(fx.node)
	}
	d.pool.Clear()
}

func (d *Driver) lookup(key string) (Config, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, ok := d.configs[key]
	return cfg, ok
}
