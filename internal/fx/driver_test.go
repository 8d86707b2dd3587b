package fx

import (
	"math"
	"testing"

	"github.com/simstage/bridge/internal/scene"
	"github.com/simstage/bridge/internal/scene/scenetest"
	"github.com/simstage/bridge/pkg/core"
)

func newTestDriver(t *testing.T, loader *scenetest.FakeLoader, configs map[string]Config) *Driver {
	t.Helper()
	d, err := NewDriver(loader, configs, 8, nil)
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}
	return d
}

func hitConfig() map[string]Config {
	return map[string]Config{
		"hit":  {Path: "fx/hit", Duration: 0.5},
		"aura": {Path: "fx/aura", Duration: math.Inf(1)},
	}
}

func TestPlayFx_UnknownKey(t *testing.T) {
	d := newTestDriver(t, scenetest.NewFakeLoader(), hitConfig())

	if node := d.PlayFx("nonexistent", core.Vec3{}); node != nil {
		t.Error("expected nil node for unknown key")
	}
	if d.ActiveCount() != 0 {
		t.Errorf("expected no active effects, got %d", d.ActiveCount())
	}
}

func TestPlayFx_SpawnsAndPositions(t *testing.T) {
	d := newTestDriver(t, scenetest.NewFakeLoader(), hitConfig())

	pos := core.Vec3{X: 3, Y: 1}
	target := core.Handle{ID: 9, Generation: 2}
	node := d.PlayFx("hit", pos, target)
	if node == nil {
		t.Fatal("expected live node with synchronous loader")
	}
	if node.Position() != pos {
		t.Errorf("expected position %+v, got %+v", pos, node.Position())
	}
	if !node.Active() {
		t.Error("expected active node")
	}
	if got, ok := d.TargetOf(node); !ok || got != target {
		t.Errorf("expected target %+v, got %+v (ok=%v)", target, got, ok)
	}
	if d.ActiveCount() != 1 {
		t.Errorf("expected 1 active effect, got %d", d.ActiveCount())
	}
}

func TestPlayFx_DeferredSpawnOnLoadCompletion(t *testing.T) {
	loader := scenetest.NewFakeLoader()
	loader.Manual = true
	d := newTestDriver(t, loader, hitConfig())

	if node := d.PlayFx("hit", core.Vec3{X: 1}); node != nil {
		t.Fatal("expected nil node while load is in flight")
	}
	if d.ActiveCount() != 0 {
		t.Fatalf("expected no active effect before load completes")
	}

	loader.Resolve("fx/hit")

	if d.ActiveCount() != 1 {
		t.Errorf("expected effect live after load completion, got %d", d.ActiveCount())
	}
}

func TestPlayFx_LoadFailure(t *testing.T) {
	loader := scenetest.NewFakeLoader()
	loader.FailPaths["fx/hit"] = true
	d := newTestDriver(t, loader, hitConfig())

	if node := d.PlayFx("hit", core.Vec3{}); node != nil {
		t.Error("expected nil node on load failure")
	}
	if d.ActiveCount() != 0 {
		t.Errorf("expected no active effects after failed load, got %d", d.ActiveCount())
	}
}

func TestUpdate_AutoStopOnExpiry(t *testing.T) {
	loader := scenetest.NewFakeLoader()
	d := newTestDriver(t, loader, hitConfig())

	node := d.PlayFx("hit", core.Vec3{})
	if node == nil {
		t.Fatal("expected live node")
	}

	d.Update(0.6)

	if d.ActiveCount() != 0 {
		t.Errorf("expected effect auto-stopped, got %d active", d.ActiveCount())
	}
	if node.Active() {
		t.Error("expected stopped node to be deactivated")
	}
	if size := d.PoolStats()["hit"].Size; size != 1 {
		t.Errorf("expected node returned to pool exactly once, size %d", size)
	}

	// A second update must not double-release.
	d.Update(0.1)
	if size := d.PoolStats()["hit"].Size; size != 1 {
		t.Errorf("expected pool size still 1, got %d", size)
	}
}

func TestUpdate_PerpetualNeverExpires(t *testing.T) {
	d := newTestDriver(t, scenetest.NewFakeLoader(), hitConfig())

	node := d.PlayFx("aura", core.Vec3{})
	if node == nil {
		t.Fatal("expected live node")
	}

	for i := 0; i < 10000; i++ {
		d.Update(10.0)
	}
	if d.ActiveCount() != 1 {
		t.Fatal("expected perpetual effect to outlive updates")
	}

	d.StopFx(node)
	if d.ActiveCount() != 0 {
		t.Error("expected explicit stop to end perpetual effect")
	}
}

func TestUpdate_InvalidNodeRecycledOnce(t *testing.T) {
	d := newTestDriver(t, scenetest.NewFakeLoader(), hitConfig())

	node := d.PlayFx("hit", core.Vec3{})
	node.(*scenetest.FakeNode).Destroy()

	d.Update(0.01)

	if d.ActiveCount() != 0 {
		t.Errorf("expected invalidated effect removed, got %d active", d.ActiveCount())
	}
	// A destroyed node cannot be pooled again.
	if size := d.PoolStats()["hit"].Size; size != 0 {
		t.Errorf("expected destroyed node not pooled, size %d", size)
	}
}

func TestStopFx_HaltsParticleDriver(t *testing.T) {
	loader := scenetest.NewFakeLoader()
	particles := &scenetest.FakeParticles{}
	d := newTestDriver(t, loader, hitConfig())

	// Make produced nodes carry a particle component.
	node := d.PlayFx("hit", core.Vec3{})
	node.(*scenetest.FakeNode).AttachComponent(scene.ParticleComponent, particles)

	d.StopFx(node)

	if particles.Stops() != 1 {
		t.Errorf("expected particle driver halted once, got %d", particles.Stops())
	}
	if node.Active() {
		t.Error("expected node deactivated after stop")
	}
}

func TestStopFx_InactiveNodeIsNoop(t *testing.T) {
	d := newTestDriver(t, scenetest.NewFakeLoader(), hitConfig())

	d.StopFx(scenetest.NewFakeNode())
	d.StopFx(nil)

	node := d.PlayFx("hit", core.Vec3{})
	d.StopFx(node)
	// Stopping twice: second call must be a no-op.
	d.StopFx(node)

	if size := d.PoolStats()["hit"].Size; size != 1 {
		t.Errorf("expected single pooled node, got %d", size)
	}
}

func TestPoolReuse_SharedAcrossPlays(t *testing.T) {
	loader := scenetest.NewFakeLoader()
	d := newTestDriver(t, loader, hitConfig())

	first := d.PlayFx("hit", core.Vec3{})
	d.StopFx(first)
	second := d.PlayFx("hit", core.Vec3{X: 2})

	if first != second {
		t.Error("expected pooled node reuse across plays")
	}
	if loader.Loads() != 1 {
		t.Errorf("expected a single template load, got %d", loader.Loads())
	}
}

func TestClear_StopsActivesAndDiscardsLateLoads(t *testing.T) {
	loader := scenetest.NewFakeLoader()
	loader.Manual = true
	d := newTestDriver(t, loader, hitConfig())

	d.PlayFx("hit", core.Vec3{})
	d.Clear()

	// The load finishes after teardown; no effect may appear.
	loader.Resolve("fx/hit")

	if d.ActiveCount() != 0 {
		t.Errorf("expected no actives after clear, got %d", d.ActiveCount())
	}
	if stats := d.PoolStats(); len(stats) != 0 {
		t.Errorf("expected empty pools after clear, got %v", stats)
	}
}

func TestRegisterEffect(t *testing.T) {
	d := newTestDriver(t, scenetest.NewFakeLoader(), nil)

	if node := d.PlayFx("spark", core.Vec3{}); node != nil {
		t.Fatal("expected miss before registration")
	}

	d.RegisterEffect("spark", Config{Path: "fx/spark", Duration: 1})
	if node := d.PlayFx("spark", core.Vec3{}); node == nil {
		t.Error("expected hit after registration")
	}
}
