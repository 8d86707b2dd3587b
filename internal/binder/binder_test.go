package binder

import (
	"testing"

	"github.com/simstage/bridge/internal/scene/scenetest"
	"github.com/simstage/bridge/pkg/core"
)

func TestNodeBinder_BindAndLookup(t *testing.T) {
	b := New()
	node := scenetest.NewFakeNode()
	h := core.Handle{ID: 12, Generation: 3}

	b.Bind(node, h)

	got, ok := b.Handle(node)
	if !ok {
		t.Fatal("expected binding to be found")
	}
	if got != h {
		t.Errorf("expected handle %+v, got %+v", h, got)
	}
}

func TestNodeBinder_LookupUnbound(t *testing.T) {
	b := New()
	if _, ok := b.Handle(scenetest.NewFakeNode()); ok {
		t.Error("expected unbound node to report not found")
	}
	if _, ok := b.Handle(nil); ok {
		t.Error("expected nil node to report not found")
	}
}

func TestNodeBinder_MultipleNodesPerHandle(t *testing.T) {
	b := New()
	h := core.Handle{ID: 5, Generation: 1}
	root := scenetest.NewFakeNode()
	anchor := scenetest.NewFakeNode()

	b.Bind(root, h)
	b.Bind(anchor, h)

	if b.Len() != 2 {
		t.Fatalf("expected 2 bindings, got %d", b.Len())
	}
	for _, node := range []*scenetest.FakeNode{root, anchor} {
		got, ok := b.Handle(node)
		if !ok || got != h {
			t.Errorf("expected both nodes bound to %+v", h)
		}
	}
	if nodes := b.NodesFor(h); len(nodes) != 2 {
		t.Errorf("expected 2 nodes for handle, got %d", len(nodes))
	}
}

func TestNodeBinder_RebindReplaces(t *testing.T) {
	b := New()
	node := scenetest.NewFakeNode()

	b.Bind(node, core.Handle{ID: 1, Generation: 1})
	b.Bind(node, core.Handle{ID: 1, Generation: 2})

	got, _ := b.Handle(node)
	if got.Generation != 2 {
		t.Errorf("expected rebind to replace, got generation %d", got.Generation)
	}
	if b.Len() != 1 {
		t.Errorf("expected a single binding, got %d", b.Len())
	}
}

func TestNodeBinder_Unbind(t *testing.T) {
	b := New()
	node := scenetest.NewFakeNode()
	b.Bind(node, core.Handle{ID: 2, Generation: 1})

	b.Unbind(node)
	if _, ok := b.Handle(node); ok {
		t.Error("expected node to be unbound")
	}

	// Unbinding again is a no-op.
	b.Unbind(node)
	b.Unbind(nil)
}

func TestNodeBinder_Clear(t *testing.T) {
	b := New()
	b.Bind(scenetest.NewFakeNode(), core.Handle{ID: 1, Generation: 1})
	b.Bind(scenetest.NewFakeNode(), core.Handle{ID: 2, Generation: 1})

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("expected empty binder, got %d", b.Len())
	}
}
